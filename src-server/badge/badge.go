package badge

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultBaseURL is the check-in page the badge payload points at.
const DefaultBaseURL = "https://Sarthk-Singh.github.io/Event-Planner/checkin.html"

const imageSize = 512 // px

// Generator renders an attendee's public state into a scannable QR
// badge. Same inputs always produce the same payload string; scanners
// depend on the parameter order, so it is fixed here rather than left
// to url.Values.
type Generator struct {
	baseURL string
	dir     string
}

func NewGenerator(baseURL string, dir string) (*Generator, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewGenerator: can't create badge dir: %w", err)
	}
	return &Generator{
		baseURL: baseURL,
		dir:     dir,
	}, nil
}

// Payload builds the encoded check-in URL for one attendee snapshot.
func (g *Generator) Payload(id string, name string, paid string, checkedIn string) string {
	return fmt.Sprintf("%s?id=%s&name=%s&paid=%s&checked_in=%s",
		g.baseURL,
		url.QueryEscape(id),
		url.QueryEscape(name),
		url.QueryEscape(paid),
		url.QueryEscape(checkedIn),
	)
}

// Path is where the badge image for an id+name pair lives.
func (g *Generator) Path(id string, name string) string {
	return filepath.Join(g.dir, fmt.Sprintf("%s_%s.png", id, name))
}

// Generate renders the payload to a PNG, overwriting any previous badge
// for the same id+name pair. Returns the payload string and image path.
func (g *Generator) Generate(id string, name string, paid string, checkedIn string) (string, string, error) {
	payload := g.Payload(id, name, paid, checkedIn)
	path := g.Path(id, name)
	if err := qrcode.WriteFile(payload, qrcode.Medium, imageSize, path); err != nil {
		return "", "", fmt.Errorf("Generator.Generate: %w", err)
	}
	return payload, path, nil
}
