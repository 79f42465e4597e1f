package lsp

import (
	"encoding/json"

	"github.com/tliron/glsp"
	lsproto "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap"
)

// MethodSelectionChanged is sent by the client whenever the selection in a
// playground changes. A null range clears it.
const MethodSelectionChanged = "mdb/selectionChanged"

// SelectionChangedParams are the params of MethodSelectionChanged.
type SelectionChangedParams struct {
	URI   lsproto.DocumentUri `json:"uri"`
	Range *lsproto.Range      `json:"range"`
}

// router serves the playground's own methods and hands the rest to the
// standard protocol handler.
type router struct {
	base   *lsproto.Handler
	server *Server
}

func (r *router) Handle(ctx *glsp.Context) (result any, validMethod bool, validParams bool, err error) {
	switch ctx.Method {
	case MethodSelectionChanged:
		var params SelectionChangedParams
		if err := json.Unmarshal(ctx.Params, &params); err != nil {
			return nil, true, false, err
		}
		return nil, true, true, r.server.selectionChanged(ctx, &params)
	}
	return r.base.Handle(ctx)
}

func (s *Server) selectionChanged(ctx *glsp.Context, params *SelectionChangedParams) error {
	uri := string(params.URI)
	if params.Range == nil {
		s.logger.Debug("Selection cleared", zap.String("uri", uri))
		s.partial.Refresh(uri, nil)
		return nil
	}

	selection := toRange(*params.Range)
	s.logger.Debug("Selection changed", zap.String("uri", uri), zap.Any("range", selection))
	s.partial.Refresh(uri, &selection)
	return nil
}
