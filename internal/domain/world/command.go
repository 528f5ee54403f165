package world

import (
	"encoding/json"
	"fmt"
)

// Command is one simulator step request: an action name plus parameters.
type Command struct {
	Action string
	Params map[string]any
}

func NewCommand(action string, kv ...any) Command {
	params := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		params[key] = kv[i+1]
	}
	return Command{Action: action, Params: params}
}

// PutObjectCommand places the held object into receptacleID. The simulator
// takes the receptacle as objectId and infers the held object itself.
func PutObjectCommand(receptacleID string) Command {
	return NewCommand("PutObject", "objectId", receptacleID, "forceAction", false)
}

func (c Command) Param(key string) (any, bool) {
	v, ok := c.Params[key]
	return v, ok
}

func (c Command) StringParam(key string) string {
	s, _ := c.Params[key].(string)
	return s
}

func (c Command) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.Params)+1)
	for k, v := range c.Params {
		m[k] = v
	}
	m["action"] = c.Action
	return json.Marshal(m)
}

func (c *Command) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	action, _ := m["action"].(string)
	delete(m, "action")
	*c = Command{Action: action, Params: m}
	return nil
}
