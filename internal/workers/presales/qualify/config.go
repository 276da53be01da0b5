package qualify

import (
	"strings"

	"presales-mvp/internal/common/config"
)

type Config struct {
	Instruction string
}

func LoadConfig(agent config.AgentConfig) *Config {
	instruction := strings.TrimSpace(agent.Instruction)
	if instruction == "" {
		instruction = config.DefaultAgentInstruction
	}
	return &Config{Instruction: instruction}
}
