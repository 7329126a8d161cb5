package handler

import (
	"context"
	"time"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
)

// AvalancheGetContactsHandler services avalanche_getContacts. The first
// request from a domain opens a consent prompt; the granted permission
// persists, so later calls answer immediately.
type AvalancheGetContactsHandler struct {
	contacts    service.Contacts
	permissions *service.PermissionsService
	opener      ApprovalOpener
}

func NewAvalancheGetContactsHandler(contacts service.Contacts, permissions *service.PermissionsService, opener ApprovalOpener) *AvalancheGetContactsHandler {
	return &AvalancheGetContactsHandler{contacts: contacts, permissions: permissions, opener: opener}
}

func (h *AvalancheGetContactsHandler) Methods() []string {
	return []string{"avalanche_getContacts"}
}

func (h *AvalancheGetContactsHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *AvalancheGetContactsHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	domain := siteDomain(req)
	if domain == "" {
		return rpc.Errored(invalidSiteMetadata)
	}
	if h.permissions.Has(domain, service.CapContacts) {
		return rpc.Immediate(h.contacts.List())
	}
	return deferToApproval(ctx, h.opener, req, req.Site, "permissions/contacts")
}

func (h *AvalancheGetContactsHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	domain := siteDomain(act.Request())
	if _, err := h.permissions.Grant(domain, service.CapContacts, time.Now().UnixMilli()); err != nil {
		return nil, err
	}
	return h.contacts.List(), nil
}

func (h *AvalancheGetContactsHandler) ApprovesLocally() bool { return true }
