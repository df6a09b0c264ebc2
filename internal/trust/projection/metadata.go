package projection

import (
	"net/url"

	"briq/internal/trust/models"
)

const (
	metadataDescription = "Briq user profile with trust scores"
	identiconBaseURL    = "https://api.dicebear.com/7.x/identicon/svg"
)

// Metadata is the token metadata document for a profile.
type Metadata struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Attributes  []Trait `json:"attributes"`
}

// BuildMetadata projects p into a metadata document. Name and image of prev
// are kept when set; attributes are always rebuilt.
func BuildMetadata(p *models.Profile, prev *Metadata) *Metadata {
	m := &Metadata{
		Name:        "User " + prefix(p.Address, 6),
		Description: metadataDescription,
		Image:       identiconBaseURL + "?seed=" + url.QueryEscape(p.Address),
		Attributes:  Project(p),
	}
	if prev != nil {
		if prev.Name != "" {
			m.Name = prev.Name
		}
		if prev.Image != "" {
			m.Image = prev.Image
		}
	}
	return m
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
