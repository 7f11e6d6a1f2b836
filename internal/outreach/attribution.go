package outreach

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UnassignedClient names inboxes no tag attributes to a client.
const UnassignedClient = "Unassigned"

// ClientRef identifies one agency client.
type ClientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attribution maps platform resources onto agency clients.
type Attribution struct {
	Clients        []ClientRef
	CampaignClient map[string]string // campaign ID → client ID
	AccountClient  map[string]string // lower-cased inbox email → client ID
}

// ClientName returns the display name for a client ID.
func (a Attribution) ClientName(id string) string {
	for _, c := range a.Clients {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// Attribute assigns campaigns and accounts to clients. Each custom tag is a
// client. A campaign carrying no client tag is assigned to the client named
// by its name prefix before " - " or " | ", created if no tag matches.
// Accounts are attributed by tag only. Clients are returned sorted by name.
func Attribute(tags []CustomTag, mappings []TagMapping, campaigns []Campaign) Attribution {
	a := Attribution{
		CampaignClient: make(map[string]string),
		AccountClient:  make(map[string]string),
	}
	byID := make(map[string]ClientRef)
	tagClient := make(map[string]string)

	addClient := func(name string) string {
		id := Slug(name)
		if id == "" {
			return ""
		}
		if _, ok := byID[id]; !ok {
			byID[id] = ClientRef{ID: id, Name: strings.TrimSpace(name)}
		}
		return id
	}

	for _, t := range tags {
		if id := addClient(t.Label); id != "" {
			tagClient[t.ID] = id
		}
	}

	for _, m := range mappings {
		clientID, ok := tagClient[m.TagID]
		if !ok || m.ResourceID == "" {
			continue
		}
		switch m.ResourceType {
		case ResourceCampaign:
			if _, taken := a.CampaignClient[m.ResourceID]; !taken {
				a.CampaignClient[m.ResourceID] = clientID
			}
		case ResourceAccount:
			email := strings.ToLower(m.ResourceID)
			if _, taken := a.AccountClient[email]; !taken {
				a.AccountClient[email] = clientID
			}
		}
	}

	for _, c := range campaigns {
		if _, ok := a.CampaignClient[c.ID]; ok {
			continue
		}
		if id := addClient(NamePrefix(c.Name)); id != "" {
			a.CampaignClient[c.ID] = id
		}
	}

	a.Clients = make([]ClientRef, 0, len(byID))
	for _, c := range byID {
		a.Clients = append(a.Clients, c)
	}
	sort.Slice(a.Clients, func(i, j int) bool {
		if a.Clients[i].Name != a.Clients[j].Name {
			return a.Clients[i].Name < a.Clients[j].Name
		}
		return a.Clients[i].ID < a.Clients[j].ID
	})
	return a
}

// NamePrefix returns the part of a campaign name before the first " - " or
// " | " separator, or the whole trimmed name when there is none.
func NamePrefix(name string) string {
	cut := len(name)
	for _, sep := range []string{" - ", " | "} {
		if i := strings.Index(name, sep); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(name[:cut])
}

// Slug lower-cases name, strips diacritics and joins alphanumeric runs
// with "-".
func Slug(name string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
