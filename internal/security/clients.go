package security

import (
	"crypto/subtle"

	"github.com/maua/florist-api/configs"
)

const (
	PermCatalogWrite = "catalog.write"
	PermOrdersRead   = "orders.read"
	PermOrdersWrite  = "orders.write"
)

type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"orders.read","orders.write"}
	Enabled bool
}

// Clients is the admin client registry loaded from security.clients.
type Clients map[string]Client

func NewClients(cfg configs.Config) Clients {
	out := make(Clients, len(cfg.Security.Clients))
	for _, c := range cfg.Security.Clients {
		if c.ID == "" {
			continue
		}
		out[c.ID] = Client{ID: c.ID, Secret: c.Secret, Perms: c.Perms, Enabled: !c.Disabled}
	}
	return out
}

// Authenticate returns the enabled client matching id and secret.
func (cs Clients) Authenticate(id, secret string) (Client, bool) {
	cl, ok := cs[id]
	if !ok || !cl.Enabled || cl.Secret == "" {
		return Client{}, false
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(cl.Secret)) != 1 {
		return Client{}, false
	}
	return cl, true
}
