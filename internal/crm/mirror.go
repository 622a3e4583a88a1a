package crm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"leadhunt-engine/internal/domain"
)

// LocalStore is the local contact store the mirror dedupes against.
type LocalStore interface {
	CreateContact(ctx context.Context, f domain.ContactFields) (domain.Contact, error)
	DeleteContact(ctx context.Context, id string) error
}

// Remote receives contacts after the local store accepted them.
type Remote interface {
	CreateContact(ctx context.Context, f domain.ContactFields) (domain.Contact, error)
}

const rollbackTimeout = 5 * time.Second

// Mirror stores a contact locally, then pushes it to the remote CRM. When the
// push fails the local row is removed so the lead is retried next time.
type Mirror struct {
	Local  LocalStore
	Remote Remote
}

func (m *Mirror) CreateContact(ctx context.Context, f domain.ContactFields) (domain.Contact, error) {
	c, err := m.Local.CreateContact(ctx, f)
	if err != nil {
		return domain.Contact{}, err
	}

	_, err = m.Remote.CreateContact(ctx, f)
	switch {
	case err == nil:
		return c, nil
	case eris.Is(err, domain.ErrDuplicateContact):
		// already in the CRM; keep the local copy
		zap.L().Info("crm: lead already exists remotely", zap.String("source_id", f.SourceID))
		return c, nil
	}

	// the caller's ctx may be what failed the push
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if derr := m.Local.DeleteContact(rbCtx, c.ID); derr != nil {
		zap.L().Warn("crm: rollback local contact failed", zap.String("id", c.ID), zap.Error(derr))
	}
	return domain.Contact{}, eris.Wrap(err, "crm: push contact")
}
