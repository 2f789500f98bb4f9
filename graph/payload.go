package graph

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "ontology",
		Category:    "catalog",
		Version:     "v1",
		Description: "Loaded ontology descriptor with load statistics",
		Factory:     func() any { return &CatalogPayload{} },
	})
	if err != nil {
		panic("failed to register CatalogPayload: " + err.Error())
	}
}

// CatalogType is the message type for catalog payloads.
var CatalogType = message.Type{Domain: "ontology", Category: "catalog", Version: "v1"}

// CatalogPayload describes one loaded ontology as a graph entity.
type CatalogPayload struct {
	ID         string           `json:"id"`
	TripleData []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (c *CatalogPayload) EntityID() string          { return c.ID }
func (c *CatalogPayload) Triples() []message.Triple { return c.TripleData }
func (c *CatalogPayload) Schema() message.Type      { return CatalogType }

func (c *CatalogPayload) Validate() error {
	if c.ID == "" {
		return errors.New("entity ID is required")
	}
	if len(c.TripleData) == 0 {
		return errors.New("catalog entity has no triples")
	}
	return nil
}

func (c *CatalogPayload) MarshalJSON() ([]byte, error) {
	type Alias CatalogPayload
	return json.Marshal((*Alias)(c))
}

func (c *CatalogPayload) UnmarshalJSON(data []byte) error {
	type Alias CatalogPayload
	return json.Unmarshal(data, (*Alias)(c))
}
