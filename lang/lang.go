package lang

import (
	"log"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Message catalog keyed by message name. The file holds one block per
// language plus an active_language selector; only the active block is
// kept in memory.
var (
	mu       sync.RWMutex
	messages = map[string]string{}
)

func Load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[LANG] could not read %s: %v, message keys will show raw", path, err)
		return
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		log.Fatalf("[LANG] failed to parse %s: %v", path, err)
	}

	active := "en"
	if v, ok := raw["active_language"].(string); ok && v != "" {
		active = v
	}

	block, ok := raw[active].(map[string]interface{})
	if !ok {
		block, ok = raw["en"].(map[string]interface{})
		if !ok {
			log.Printf("[LANG] no %q or \"en\" block in %s", active, path)
			return
		}
		active = "en"
	}

	m := make(map[string]string, len(block))
	for k, v := range block {
		if s, ok := v.(string); ok {
			m[k] = s
		}
	}

	mu.Lock()
	messages = m
	mu.Unlock()
	log.Printf("[LANG] loaded %q (%d keys)", active, len(m))
}

// T resolves a message key, substituting {name} placeholders from the
// alternating name/value pairs. Unknown keys render as {key} so missing
// translations are visible instead of silent.
func T(key string, pairs ...string) string {
	mu.RLock()
	s, ok := messages[key]
	mu.RUnlock()

	if !ok {
		return "{" + key + "}"
	}
	for j := 0; j+1 < len(pairs); j += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[j]+"}", pairs[j+1])
	}
	return s
}
