package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// EnvPlaceholder is the env marker the 0.0.8 daemon expects in place of a
// real environment.
const EnvPlaceholder = "ENV"

// CommandRequest is one command to run on the daemon.
type CommandRequest struct {
	Name string
	Args []string
}

// Array returns the command name followed by its arguments.
func (r CommandRequest) Array() []string {
	out := make([]string, 0, len(r.Args)+1)
	out = append(out, r.Name)
	return append(out, r.Args...)
}

type controlPayload struct {
	Args []string `json:"args"`
	Env  any      `json:"env"`
}

// EncodeCommand renders the application-channel payload, a JSON array of
// the command name and its arguments.
func EncodeCommand(req CommandRequest) ([]byte, error) {
	if req.Name == "" {
		return nil, errors.New("encode command: empty command name")
	}
	return marshal(req.Array())
}

// EncodeControl renders the control-socket payload. env is either
// EnvPlaceholder or an environment map from EnvironMap.
func EncodeControl(req CommandRequest, env any) ([]byte, error) {
	if req.Name == "" {
		return nil, errors.New("encode control: empty command name")
	}
	return marshal(controlPayload{Args: req.Array(), Env: env})
}

// EnvironMap converts KEY=VALUE pairs into a map. Entries without '=' are
// dropped and later duplicates win, matching os/exec.
func EnvironMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
