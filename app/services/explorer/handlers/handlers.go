// Package handlers maintains the read-only HTTP endpoints of the explorer.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/chainlabs/minersim/foundation/blockchain/database"
	"github.com/chainlabs/minersim/foundation/blockchain/state"
	"github.com/chainlabs/minersim/foundation/events"
	"github.com/dimfeld/httptreemux/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config holds the dependencies the handlers need.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// New constructs the mux with all the explorer routes. Every route is
// read-only; the explorer never mutates the chain or mempool files.
func New(cfg Config) *httptreemux.ContextMux {
	hdl := handlers{
		log:   cfg.Log,
		state: cfg.State,
		evts:  cfg.Evts,
	}

	mux := httptreemux.NewContextMux()
	mux.GET("/v1/genesis", hdl.logged(hdl.genesis))
	mux.GET("/v1/chain", hdl.logged(hdl.chain))
	mux.GET("/v1/blocks/:number", hdl.logged(hdl.blockByNumber))
	mux.GET("/v1/blocks/:number/transactions/:index/hash", hdl.logged(hdl.transactionHash))
	mux.GET("/v1/blocks/:number/proof/:txhash", hdl.logged(hdl.proof))
	mux.GET("/v1/mempool", hdl.logged(hdl.mempool))
	mux.GET("/v1/events", hdl.events)

	return mux
}

// =============================================================================

type handlers struct {
	log   *zap.SugaredLogger
	state *state.State
	evts  *events.Events
	ws    websocket.Upgrader
}

// logged attaches a trace id to each request and records it in the logs.
func (h handlers) logged(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID := uuid.NewString()
		h.log.Infow("request started", "traceid", traceID, "method", r.Method, "path", r.URL.Path)
		defer h.log.Infow("request completed", "traceid", traceID, "method", r.Method, "path", r.URL.Path)

		next(w, r)
	}
}

// genesis returns the genesis information the chain runs under.
func (h handlers) genesis(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.state.RetrieveGenesis())
}

// chain returns the whole chain in its persisted form.
func (h handlers) chain(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.state.ExportChain())
}

// blockByNumber returns one block addressed by its 1-based number.
func (h handlers) blockByNumber(w http.ResponseWriter, r *http.Request) {
	number, err := param(r, "number")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	block, err := h.state.RetrieveBlock(number)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	respond(w, http.StatusOK, database.NewBlockData(block))
}

// transactionHash returns the hash of a transaction addressed by block
// number and 1-based index.
func (h handlers) transactionHash(w http.ResponseWriter, r *http.Request) {
	number, err := param(r, "number")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	index, err := param(r, "index")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	hash, err := h.state.TransactionHash(number, index)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	resp := struct {
		Hash string `json:"hash"`
	}{
		Hash: hash,
	}

	respond(w, http.StatusOK, resp)
}

// proof returns the inclusion proof for a transaction hash within a block.
func (h handlers) proof(w http.ResponseWriter, r *http.Request) {
	number, err := param(r, "number")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	txHash := httptreemux.ContextParams(r.Context())["txhash"]

	proof, err := h.state.GenerateProof(number, txHash)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	respond(w, http.StatusOK, proof)
}

// mempool returns the pending transactions in arrival order.
func (h handlers) mempool(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.state.RetrieveMempool())
}

// events handles a web socket to provide events to a client.
func (h handlers) events(w http.ResponseWriter, r *http.Request) {
	h.ws.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.ws.Upgrade(w, r, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	defer c.Close()

	traceID := uuid.NewString()
	ch := h.evts.Acquire(traceID)
	defer h.evts.Release(traceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// =============================================================================

// param parses a 1-based numeric path parameter.
func param(r *http.Request, name string) (uint64, error) {
	value := httptreemux.ContextParams(r.Context())[name]

	number, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New(name + " must be a positive integer")
	}

	return number, nil
}

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case database.IsOutOfRange(err), errors.Is(err, database.ErrTxNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respond writes the value as JSON.
func respond(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// respondError writes the error as JSON.
func respondError(w http.ResponseWriter, statusCode int, err error) {
	resp := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}

	respond(w, statusCode, resp)
}
