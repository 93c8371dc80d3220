package adapter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/ir"
)

// Support is how a platform represents a feature category.
type Support int

const (
	// Omitted means the platform has no analogous concept.
	Omitted Support = iota
	// Degraded means the feature is folded into plain instructions.
	Degraded
	// Native means the platform's own mechanism is used.
	Native
)

func (s Support) String() string {
	switch s {
	case Native:
		return "native"
	case Degraded:
		return "degraded"
	default:
		return "omitted"
	}
}

// Capabilities is one row of the capability table.
type Capabilities struct {
	Rules    map[ir.Scope]Support
	Hooks    Support
	Commands Support
	Skills   Support
	Agents   Support
}

// Support returns the support level for f.
func (c Capabilities) Support(f Feature) Support {
	switch f {
	case FeatureHooks:
		return c.Hooks
	case FeatureCommands:
		return c.Commands
	case FeatureSkills:
		return c.Skills
	case FeatureAgents:
		return c.Agents
	}
	for _, scope := range ir.AllScopes {
		if RuleFeature(scope) == f {
			return c.Rules[scope]
		}
	}
	return Omitted
}

// RuleFormat describes platforms that keep one file per rule.
type RuleFormat struct {
	Dir string
	Ext string
	// Scopes lists the rule scopes written to their own file. Rules of
	// other scopes go to the platform's instructions file.
	Scopes []ir.Scope
	// Frontmatter returns the header for a natively supported rule.
	Frontmatter func(ir.Rule) yaml.MapSlice
	// AuxFrontmatter returns the header for degraded hooks, commands,
	// skills and agents written into Dir. It receives the item's
	// description, which may be empty.
	AuxFrontmatter func(description string) yaml.MapSlice
}

func (f *RuleFormat) path(name string) string {
	return f.Dir + "/" + slug(name) + f.Ext
}

func (f *RuleFormat) holds(scope ir.Scope) bool {
	return f != nil && slices.Contains(f.Scopes, scope)
}

// Block is one rendered section of an instructions file.
type Block struct {
	Name     string
	Priority ir.Priority
	Content  string
}

// Assembler joins rule blocks and auxiliary blocks (degraded hooks,
// commands, skills, agents) into the body of an instructions file.
type Assembler func(rules []Block, aux []Block) (string, []string)

// ConcatAssembler keeps every block, rules first.
func ConcatAssembler(rules []Block, aux []Block) (string, []string) {
	parts := make([]string, 0, len(rules)+len(aux))
	for _, b := range rules {
		parts = append(parts, b.Content)
	}
	for _, b := range aux {
		parts = append(parts, b.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

// Platform is one target tool. It implements Adapter.
type Platform struct {
	ID          string
	DisplayName string
	Capabilities

	// Instructions is the single instructions file, or empty when every
	// rule lives in RuleFormat.Dir.
	Instructions string
	RuleFormat   *RuleFormat
	Assembler    Assembler

	// Native strategies, used when the matching capability is Native.
	Hooks    func([]ir.Hook) ([]File, []string, error)
	Commands func([]ir.Command) ([]File, error)
	Skills   func([]ir.Skill) ([]File, error)
	Agents   func([]ir.Agent) ([]File, error)

	// Extras adds files derived from the finished file set.
	Extras func(files []File) ([]File, error)

	ManagedDirs []string
}

// Name implements Adapter.
func (p *Platform) Name() string {
	return p.ID
}

// Generate implements Adapter.
func (p *Platform) Generate(in ir.IR) (Result, error) {
	g := &generation{platform: p, native: map[Feature]bool{}, degraded: map[Feature]bool{}, counts: map[Feature]int{}}

	for _, rule := range in.Rules {
		if err := g.addRule(rule); err != nil {
			return Result{}, stacktrace.Propagate(err, "failed to render rule '%s' for %s", rule.Name, p.ID)
		}
	}
	if err := g.addHooks(in.Hooks); err != nil {
		return Result{}, stacktrace.Propagate(err, "failed to render hooks for %s", p.ID)
	}
	if err := g.addCommands(in.Commands); err != nil {
		return Result{}, stacktrace.Propagate(err, "failed to render commands for %s", p.ID)
	}
	if err := g.addSkills(in.Skills); err != nil {
		return Result{}, stacktrace.Propagate(err, "failed to render skills for %s", p.ID)
	}
	if err := g.addAgents(in.Agents); err != nil {
		return Result{}, stacktrace.Propagate(err, "failed to render agents for %s", p.ID)
	}

	g.assembleInstructions()

	if p.Extras != nil {
		extra, err := p.Extras(g.files)
		if err != nil {
			return Result{}, stacktrace.Propagate(err, "failed to render extra files for %s", p.ID)
		}
		g.files = append(g.files, extra...)
	}

	if dup := duplicatePath(g.files); dup != "" {
		return Result{}, stacktrace.NewError("%s: more than one item renders to '%s'; rename one of them", p.ID, dup)
	}

	return g.result(), nil
}

func duplicatePath(files []File) string {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.Path] {
			return f.Path
		}
		seen[f.Path] = true
	}
	return ""
}

// generation accumulates one Generate call's output.
type generation struct {
	platform   *Platform
	files      []File
	ruleBlocks []Block
	auxBlocks  []Block
	warnings   []string
	native     map[Feature]bool
	degraded   map[Feature]bool
	counts     map[Feature]int
	omitted    []Feature
}

func (g *generation) destination() string {
	if g.platform.Instructions != "" {
		return g.platform.Instructions
	}
	if g.platform.RuleFormat != nil {
		return g.platform.RuleFormat.Dir
	}
	return g.platform.ID
}

func (g *generation) tag(f Feature, s Support, n int) {
	g.counts[f] += n
	switch s {
	case Native:
		g.native[f] = true
	case Degraded:
		g.degraded[f] = true
	default:
		if !slices.Contains(g.omitted, f) {
			g.omitted = append(g.omitted, f)
		}
	}
}

func (g *generation) addFile(path string, content string, style MarkerStyle) {
	g.files = append(g.files, File{Path: path, Content: Mark(content, style), Ownership: OwnershipFull})
}

func (g *generation) addRule(rule ir.Rule) error {
	p := g.platform
	support := p.Rules[rule.Scope]
	feature := RuleFeature(rule.Scope)
	g.tag(feature, support, 1)

	if support == Omitted {
		return nil
	}

	if p.RuleFormat.holds(rule.Scope) {
		var content string
		if support == Native {
			var fields yaml.MapSlice
			if p.RuleFormat.Frontmatter != nil {
				fields = p.RuleFormat.Frontmatter(rule)
			}
			rendered, err := withFrontmatter(fields, renderNativeRule(rule, 1))
			if err != nil {
				return err
			}
			content = rendered
		} else {
			content = renderDegradedRule(rule, 1) + "\n"
		}
		g.addFile(p.RuleFormat.path(rule.Name), content, MarkerHTML)
		return nil
	}

	block := Block{Name: rule.Name, Priority: rule.Priority}
	if support == Native {
		block.Content = renderNativeRule(rule, 2)
	} else {
		block.Content = renderDegradedRule(rule, 2)
	}
	g.ruleBlocks = append(g.ruleBlocks, block)
	return nil
}

// addAux routes one degraded auxiliary block either into the instructions
// file or, on platforms without one, into its own file in RuleFormat.Dir.
func (g *generation) addAux(fileName string, description string, render func(level int) string) error {
	p := g.platform
	if p.Instructions == "" && p.RuleFormat != nil {
		var fields yaml.MapSlice
		if p.RuleFormat.AuxFrontmatter != nil {
			fields = p.RuleFormat.AuxFrontmatter(description)
		}
		content, err := withFrontmatter(fields, render(1))
		if err != nil {
			return err
		}
		g.addFile(p.RuleFormat.Dir+"/"+fileName+p.RuleFormat.Ext, content, MarkerHTML)
		return nil
	}
	g.auxBlocks = append(g.auxBlocks, Block{Name: fileName, Content: render(2)})
	return nil
}

func (g *generation) addHooks(hooks []ir.Hook) error {
	if len(hooks) == 0 {
		return nil
	}
	p := g.platform
	g.tag(FeatureHooks, p.Capabilities.Hooks, len(hooks))
	switch p.Capabilities.Hooks {
	case Native:
		files, warnings, err := p.Hooks(hooks)
		if err != nil {
			return err
		}
		g.files = append(g.files, files...)
		for _, w := range warnings {
			g.warnings = append(g.warnings, p.ID+": "+w)
		}
	case Degraded:
		return g.addAux("ruleforge-hooks", "Lifecycle hooks to run after file changes", func(level int) string {
			return renderHooks(hooks, level)
		})
	}
	return nil
}

func (g *generation) addCommands(commands []ir.Command) error {
	if len(commands) == 0 {
		return nil
	}
	p := g.platform
	g.tag(FeatureCommands, p.Capabilities.Commands, len(commands))
	switch p.Capabilities.Commands {
	case Native:
		files, err := p.Commands(commands)
		if err != nil {
			return err
		}
		g.files = append(g.files, files...)
	case Degraded:
		for _, cmd := range commands {
			if err := g.addAux("command-"+slug(cmd.Name), cmd.Description, func(level int) string {
				return renderCommand(cmd, level)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *generation) addSkills(skills []ir.Skill) error {
	if len(skills) == 0 {
		return nil
	}
	p := g.platform
	g.tag(FeatureSkills, p.Capabilities.Skills, len(skills))
	switch p.Capabilities.Skills {
	case Native:
		files, err := p.Skills(skills)
		if err != nil {
			return err
		}
		g.files = append(g.files, files...)
	case Degraded:
		for _, skill := range skills {
			if err := g.addAux("skill-"+slug(skill.Name), skill.Description, func(level int) string {
				return renderSkill(skill, level, true)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *generation) addAgents(agents []ir.Agent) error {
	if len(agents) == 0 {
		return nil
	}
	p := g.platform
	g.tag(FeatureAgents, p.Capabilities.Agents, len(agents))
	switch p.Capabilities.Agents {
	case Native:
		files, err := p.Agents(agents)
		if err != nil {
			return err
		}
		g.files = append(g.files, files...)
	case Degraded:
		for _, agent := range agents {
			if err := g.addAux("agent-"+slug(agent.Name), agent.Description, func(level int) string {
				return renderAgent(agent, level)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *generation) assembleInstructions() {
	p := g.platform
	if p.Instructions == "" || (len(g.ruleBlocks) == 0 && len(g.auxBlocks) == 0) {
		return
	}
	assemble := p.Assembler
	if assemble == nil {
		assemble = ConcatAssembler
	}
	body, warnings := assemble(g.ruleBlocks, g.auxBlocks)
	g.warnings = append(g.warnings, warnings...)
	g.addFile(p.Instructions, body+"\n", MarkerHTML)
}

func (g *generation) result() Result {
	res := Result{
		Target:      g.platform.ID,
		Files:       g.files,
		ManagedDirs: slices.Clone(g.platform.ManagedDirs),
	}
	var degradedWarnings []string
	for _, f := range AllFeatures {
		if g.native[f] {
			res.NativeFeatures = append(res.NativeFeatures, f)
		}
		if g.degraded[f] {
			res.DegradedFeatures = append(res.DegradedFeatures, f)
			degradedWarnings = append(degradedWarnings, fmt.Sprintf(
				"%s: %s have no native equivalent; %d rendered as plain instructions in %s",
				g.platform.ID, f, g.counts[f], g.destination(),
			))
		}
	}
	for _, f := range g.omitted {
		degradedWarnings = append(degradedWarnings, fmt.Sprintf(
			"%s: %s are not supported; %d omitted", g.platform.ID, f, g.counts[f],
		))
	}
	res.Warnings = append(degradedWarnings, g.warnings...)
	return res
}
