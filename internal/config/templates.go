package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "bagctl", "":
		return bagctlTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const bagctlTemplate = `[log]
level = "info"
timestamp = true
no_color = false

[server]
name = "bagctl"
addr = ":9200"
cors_origins = ["http://localhost:3000"]
max_body_bytes = 67108864

[inspect]
messages_only = false
topics = []
digest = false
`
