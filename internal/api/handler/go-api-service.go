package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ndx-snapshot-backend/internal/api/constant"
	"ndx-snapshot-backend/internal/api/dto"
	"ndx-snapshot-backend/internal/api/usecase"
)

type HandlerItf interface {
	GetQuotes(*gin.Context)
	GetQuote(*gin.Context)
	PostRefresh(*gin.Context)
	GetHealth(*gin.Context)
	GetTreemap(*gin.Context)
}

type Handler struct {
	uc          usecase.UsecaseItf
	recordDaily bool
}

// NewHandler wires the usecase. recordDaily is the default for forced
// refreshes whose body does not say otherwise.
func NewHandler(uc usecase.UsecaseItf, recordDaily bool) *Handler {
	return &Handler{uc: uc, recordDaily: recordDaily}
}

func (hd *Handler) GetQuotes(ctx *gin.Context) {
	force := false
	if raw := ctx.Query("force"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			ctx.Error(constant.ErrInvalidForce)
			return
		}
		force = v
	}

	// usecase
	res, err := hd.uc.LoadQuotes(ctx.Request.Context(), force)
	if err != nil {
		ctx.Error(err)
		return
	}

	// return response
	ctx.Header("Cache-Control", constant.QuotesCacheControl)
	ctx.JSON(http.StatusOK, dto.Res{
		Success: true,
		Data: dto.GetQuotesRes{
			Quotes:    res.Quotes,
			FetchedAt: res.FetchedAt,
			Source:    string(res.Source),
			Refreshed: res.Refreshed,
		},
	})
}

func (hd *Handler) GetQuote(ctx *gin.Context) {
	quote, err := hd.uc.SelectBySymbol(ctx.Request.Context(), ctx.Param("symbol"))
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.Header("Cache-Control", constant.QuotesCacheControl)
	ctx.JSON(http.StatusOK, dto.Res{
		Success: true,
		Data:    dto.GetQuoteRes{Quote: quote},
	})
}

func (hd *Handler) PostRefresh(ctx *gin.Context) {
	// an empty body means defaults
	var req dto.PostRefreshReq
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.Error(err)
		return
	}
	recordDaily := hd.recordDaily
	if req.RecordDaily != nil {
		recordDaily = *req.RecordDaily
	}

	// usecase
	res, err := hd.uc.ForceRefresh(ctx.Request.Context(), recordDaily)
	if err != nil {
		ctx.Error(err)
		return
	}

	// process response before returning
	out := dto.PostRefreshRes{
		Refreshed:        res.Refreshed,
		FetchedAt:        res.FetchedAt,
		RefreshedSymbols: res.RefreshedSymbols,
		SkippedSymbols:   res.SkippedSymbols,
		Count:            len(res.Quotes),
	}
	if res.Warning != nil {
		msg := res.Warning.Error()
		out.Warning = &msg
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, dto.Res{
		Success: true,
		Data:    out,
	})
}

func (hd *Handler) GetHealth(ctx *gin.Context) {
	health, err := hd.uc.Health(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, dto.Res{
		Success: true,
		Data:    health,
	})
}

func (hd *Handler) GetTreemap(ctx *gin.Context) {
	root, err := hd.uc.Treemap(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.Header("Cache-Control", constant.QuotesCacheControl)
	ctx.JSON(http.StatusOK, dto.Res{
		Success: true,
		Data:    root,
	})
}
