package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AylerH/DB-GPT/pkg/api"
)

// StoredModel is a persisted model registration.
type StoredModel struct {
	ID         string    `db:"id" json:"id"`
	Host       string    `db:"host" json:"host"`
	Port       int       `db:"port" json:"port"`
	Model      string    `db:"model" json:"model"`
	WorkerType string    `db:"worker_type" json:"worker_type"`
	Params     Params    `db:"params" json:"params"`
	Enabled    bool      `db:"enabled" json:"enabled"`
	SysCode    string    `db:"sys_code" json:"sys_code"`
	UserName   string    `db:"user_name" json:"user_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

func (m *StoredModel) Identity() api.ModelIdentity {
	return api.ModelIdentity{
		Model:      m.Model,
		WorkerType: api.WorkerType(m.WorkerType),
		SysCode:    m.SysCode,
		UserName:   m.UserName,
	}
}

// Detail is the wire shape returned for a stored record.
func (m *StoredModel) Detail() api.ModelDetail {
	return api.ModelDetail{
		Host:       m.Host,
		Port:       m.Port,
		Model:      m.Model,
		WorkerType: api.WorkerType(m.WorkerType),
		Params:     m.Params,
	}
}

// StartupRequest rebuilds the request that registered this record.
func (m *StoredModel) StartupRequest() *api.WorkerStartupRequest {
	return &api.WorkerStartupRequest{
		Host:       m.Host,
		Port:       m.Port,
		Model:      m.Model,
		WorkerType: api.WorkerType(m.WorkerType),
		Params:     m.Params,
		SysCode:    m.SysCode,
		UserName:   m.UserName,
	}
}

// Query filters StoredModel lookups. Zero values do not filter.
type Query struct {
	Model      string
	WorkerType string
	// Enabled nil matches both enabled and disabled records.
	Enabled  *bool
	UserName string
	SysCode  string
	Host     string
	Port     int
}

// Params is the free-form provider parameter map, stored as JSON text.
type Params map[string]any

func (p Params) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return string(b), nil
}

func (p *Params) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = Params{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported params type %T", src)
	}
	if len(raw) == 0 {
		*p = Params{}
		return nil
	}
	out := Params{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshal params: %w", err)
	}
	*p = out
	return nil
}
