package server

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/plus3/tickbox/config"
	"github.com/plus3/tickbox/match"
	"github.com/plus3/tickbox/store"
	"github.com/rs/zerolog"
)

const (
	MaxTicks       = 1_000_000
	maxMatchIDLen  = 128
	defaultListLen = 20
	maxListLen     = 100

	// SecretHeader carries the shared secret on read-only routes.
	SecretHeader = "X-Secret-String"
)

type GetHealthResponse struct {
	IsServerRunning bool `json:"isServerRunning"`
}

func GetHealth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(GetHealthResponse{IsServerRunning: true})
	}
}

type ExecuteRequest struct {
	SecretString string  `json:"secretString"`
	MatchID      string  `json:"matchId"`
	Ticks        *uint64 `json:"ticks"`
}

// ExecuteResponse mirrors the results of one match. Logs are gzipped and
// base64 encoded; they are empty strings for UNDEFINED matches.
type ExecuteResponse struct {
	Success              bool   `json:"success"`
	Error                string `json:"error,omitempty"`
	MatchID              string `json:"matchId"`
	Results              string `json:"results"`
	Log                  string `json:"log"`
	Player1LogCompressed string `json:"player1LogCompressed"`
	Player2LogCompressed string `json:"player2LogCompressed"`
}

func newExecuteResponse(result *match.Result) (*ExecuteResponse, error) {
	resp := &ExecuteResponse{
		Success: true,
		MatchID: result.MatchID,
		Results: result.String(),
	}
	if result.Status == match.StatusUndefined {
		return resp, nil
	}

	artifacts, err := result.Compress()
	if err != nil {
		return nil, err
	}
	resp.Log = base64.StdEncoding.EncodeToString(artifacts.GameLog)
	resp.Player1LogCompressed = base64.StdEncoding.EncodeToString(artifacts.PlayerLogs[0])
	resp.Player2LogCompressed = base64.StdEncoding.EncodeToString(artifacts.PlayerLogs[1])
	return resp, nil
}

func secretMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// PostExecute runs a match to completion (or until the match timeout) and
// stores its result.
func PostExecute(cfg config.Config, results store.ResultStore, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(ExecuteRequest)
		if err := c.BodyParser(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "failed to parse request body: "+err.Error())
		}
		if !secretMatches(req.SecretString, cfg.SecretKey) {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized!")
		}
		if len(req.MatchID) > maxMatchIDLen {
			return fiber.NewError(fiber.StatusBadRequest, "matchId too long")
		}

		ticks := cfg.Ticks
		if req.Ticks != nil {
			if *req.Ticks == 0 || *req.Ticks > MaxTicks {
				return fiber.NewError(fiber.StatusBadRequest, "ticks out of range")
			}
			ticks = *req.Ticks
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), cfg.MatchTimeout)
		defer cancel()

		result, err := runMatch(ctx, match.Config{
			Ticks:    ticks,
			TickRate: cfg.TickRate,
			MatchID:  req.MatchID,
		}, logger)
		if err != nil {
			logger.Error().Err(err).Str("match_id", req.MatchID).Msg("match failed")
			return c.Status(fiber.StatusInternalServerError).JSON(ExecuteResponse{
				Error:   err.Error(),
				MatchID: req.MatchID,
			})
		}

		if err := results.Save(c.UserContext(), result); err != nil {
			logger.Error().Err(err).Str("match_id", result.MatchID).Msg("saving result")
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save result")
		}

		resp, err := newExecuteResponse(result)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compress logs: "+err.Error())
		}
		return c.JSON(resp)
	}
}

func runMatch(ctx context.Context, cfg match.Config, logger zerolog.Logger) (*match.Result, error) {
	m, err := match.New(cfg, match.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return m.Run(ctx)
}

// RequireSecret rejects requests without the shared secret header.
func RequireSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !secretMatches(c.Get(SecretHeader), secret) {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized!")
		}
		return c.Next()
	}
}

type ListMatchesResponse struct {
	MatchIDs []string `json:"matchIds"`
}

func ListMatches(results store.ResultStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n := c.QueryInt("limit", defaultListLen)
		if n <= 0 || n > maxListLen {
			return fiber.NewError(fiber.StatusBadRequest, "limit out of range")
		}
		ids, err := results.Recent(c.UserContext(), n)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list matches")
		}
		return c.JSON(ListMatchesResponse{MatchIDs: ids})
	}
}

func GetMatch(results store.ResultStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := results.Get(c.UserContext(), c.Params("id"))
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "match not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load match")
		}

		resp, err := newExecuteResponse(result)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compress logs: "+err.Error())
		}
		return c.JSON(resp)
	}
}
