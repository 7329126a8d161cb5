package handler

import (
	"context"

	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// domainMetadata is the page's self-description. The domain itself comes
// from the transport, never from the payload.
type domainMetadata struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// DomainMetadataHandler services metamask_sendDomainMetadata. Works in
// both lock states; recording who is talking needs no wallet access.
type DomainMetadataHandler struct {
	sites *service.SiteRegistry
}

func NewDomainMetadataHandler(sites *service.SiteRegistry) *DomainMetadataHandler {
	return &DomainMetadataHandler{sites: sites}
}

func (h *DomainMetadataHandler) Methods() []string {
	return []string{"metamask_sendDomainMetadata"}
}

func (h *DomainMetadataHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return h.record(req)
}

func (h *DomainMetadataHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return h.record(req)
}

func (h *DomainMetadataHandler) record(req *rpc.Request) rpc.Outcome {
	domain := siteDomain(req)
	if domain == "" {
		return rpc.Errored(invalidSiteMetadata)
	}

	var meta domainMetadata
	if err := req.ObjectParams(&meta); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}

	h.sites.Record(req.TabID, rpc.Domain{
		Domain: domain,
		Name:   meta.Name,
		Icon:   meta.Icon,
	})
	return rpc.Immediate(true)
}
