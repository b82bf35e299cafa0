package conversation

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Messages []Message `yaml:"messages"`
}

// LoadSeed reads initial messages from a YAML document of the form
//
//	messages:
//	  - sender: bot
//	    text: Hello!
//
// Missing ids are generated and missing timestamps are set to now.
func LoadSeed(r io.Reader, now time.Time) ([]Message, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return []Message{}, nil
		}
		return nil, errors.Wrap(err, "decode seed transcript")
	}

	out := make([]Message, 0, len(f.Messages))
	for i, m := range f.Messages {
		m.Origin = Origin(strings.ToLower(strings.TrimSpace(string(m.Origin))))
		if m.Origin != OriginUser && m.Origin != OriginBot {
			return nil, errors.Errorf("seed message %d: unknown sender %q", i, m.Origin)
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		out = append(out, m)
	}
	return out, nil
}

func LoadSeedFile(path string, now time.Time) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed transcript")
	}
	defer func() { _ = f.Close() }()
	return LoadSeed(f, now)
}
