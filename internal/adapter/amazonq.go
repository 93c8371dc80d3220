package adapter

import "github.com/odyssey/ruleforge/internal/ir"

type amazonqAgent struct {
	Generated   string   `json:"_generated"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Prompt      string   `json:"prompt"`
	Tools       []string `json:"tools,omitempty"`
	Model       string   `json:"model,omitempty"`
}

func amazonqAgents(agents []ir.Agent) ([]File, error) {
	var files []File
	for _, agent := range agents {
		content, err := marshalJSON(amazonqAgent{
			Generated:   MarkerText,
			Name:        agent.Name,
			Description: agent.Description,
			Prompt:      agent.Body,
			Tools:       agent.Tools,
			Model:       agent.Model,
		})
		if err != nil {
			return nil, err
		}
		files = append(files, File{
			Path:      ".amazonq/cli-agents/" + slug(agent.Name) + ".json",
			Content:   content,
			Ownership: OwnershipFull,
		})
	}
	return files, nil
}
