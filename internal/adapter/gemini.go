package adapter

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/ir"
)

type geminiCommand struct {
	Description string `toml:"description,omitempty"`
	Prompt      string `toml:"prompt"`
}

// geminiCommands writes .gemini/commands/<name>.toml for every command and
// alias.
func geminiCommands(commands []ir.Command) ([]File, error) {
	var files []File
	for _, cmd := range commands {
		names := append([]string{cmd.Name}, cmd.Aliases...)
		for _, name := range names {
			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(geminiCommand{Description: cmd.Description, Prompt: cmd.Body}); err != nil {
				return nil, stacktrace.Propagate(err, "failed to encode command '%s' as TOML", name)
			}
			files = append(files, File{
				Path:      ".gemini/commands/" + slug(name) + ".toml",
				Content:   Mark(buf.String(), MarkerHash),
				Ownership: OwnershipFull,
			})
		}
	}
	return files, nil
}
