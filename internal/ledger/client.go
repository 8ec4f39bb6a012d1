package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/taskmirror/taskmirror/internal/domain"
)

// Client talks to a registry relay over HTTP JSON-RPC. The relay wraps
// the contract bindings; from here the registry is an opaque remote
// service.
type Client struct {
	http    *resty.Client
	caller  domain.Identity
	retries uint
}

// ClientConfig configures the registry relay connection.
type ClientConfig struct {
	Endpoint string
	Caller   domain.Identity
	Timeout  time.Duration // per-request, default 15s
	Retries  uint          // transport retries, default 3
}

// NewClient creates a registry client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.Retries
	if retries == 0 {
		retries = 3
	}

	hc := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Caller", string(cfg.Caller))

	return &Client{http: hc, caller: cfg.Caller, retries: retries}
}

// ─── Wire format ────────────────────────────────────────────────────────────

type rpcRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type rpcError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Reverted bool   `json:"reverted"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one RPC with bounded retries. Only transport failures
// are retried; a contract revert is final.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	req := rpcRequest{ID: uuid.NewString(), Method: method, Params: params}

	var envelope rpcResponse
	err := retry.Do(
		func() error {
			envelope = rpcResponse{}
			resp, err := c.http.R().
				SetContext(ctx).
				SetBody(req).
				SetResult(&envelope).
				Post("/rpc")
			if err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrLedgerUnreachable, method, err)
			}
			if resp.StatusCode() >= 500 {
				return fmt.Errorf("%w: %s: relay returned %d", domain.ErrLedgerUnreachable, method, resp.StatusCode())
			}
			if resp.StatusCode() != 200 {
				return fmt.Errorf("%w: %s: relay returned %d", domain.ErrCallReverted, method, resp.StatusCode())
			}
			return nil
		},
		retry.Attempts(c.retries),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		// Retry transport failures only — a contract revert is final.
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, domain.ErrLedgerUnreachable)
		}),
	)
	if err != nil {
		return err
	}

	if envelope.Error != nil {
		if envelope.Error.Reverted {
			return fmt.Errorf("%w: %s: %s", domain.ErrCallReverted, method, envelope.Error.Message)
		}
		return fmt.Errorf("%w: %s: %s", domain.ErrLedgerUnreachable, method, envelope.Error.Message)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// ─── Reads ──────────────────────────────────────────────────────────────────

type taskParams struct {
	TaskID int64 `json:"taskId"`
}

func (c *Client) GetTask(ctx context.Context, taskID int64) (domain.TaskRecord, error) {
	var rec domain.TaskRecord
	if err := c.call(ctx, "getTask", taskParams{TaskID: taskID}, &rec); err != nil {
		return domain.TaskRecord{}, err
	}
	return rec, nil
}

func (c *Client) GetMultiTasks(ctx context.Context, start, end int64, scopeToCaller bool) ([]domain.TaskRecord, error) {
	params := struct {
		Start         int64 `json:"start"`
		End           int64 `json:"end"`
		ScopeToCaller bool  `json:"scopeToCaller"`
	}{start, end, scopeToCaller}

	var recs []domain.TaskRecord
	if err := c.call(ctx, "getMultiTasks", params, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ─── Transitions ────────────────────────────────────────────────────────────

func (c *Client) StartTask(ctx context.Context, taskID int64) error {
	return c.call(ctx, "startTask", taskParams{TaskID: taskID}, nil)
}

func (c *Client) ReviewTask(ctx context.Context, taskID int64) error {
	return c.call(ctx, "reviewTask", taskParams{TaskID: taskID}, nil)
}

func (c *Client) CompleteTask(ctx context.Context, taskID int64) error {
	return c.call(ctx, "completeTask", taskParams{TaskID: taskID}, nil)
}

func (c *Client) CancelTask(ctx context.Context, taskID int64) error {
	return c.call(ctx, "cancelTask", taskParams{TaskID: taskID}, nil)
}

// ─── Role predicates ────────────────────────────────────────────────────────

type roleCheckParams struct {
	Identity string `json:"identity"`
}

func (c *Client) HasMemberRole(ctx context.Context, id domain.Identity) (bool, error) {
	var granted bool
	if err := c.call(ctx, "hasMemberRole", roleCheckParams{Identity: string(id)}, &granted); err != nil {
		return false, err
	}
	return granted, nil
}

func (c *Client) HasLeaderRole(ctx context.Context, id domain.Identity) (bool, error) {
	var granted bool
	if err := c.call(ctx, "hasLeaderRole", roleCheckParams{Identity: string(id)}, &granted); err != nil {
		return false, err
	}
	return granted, nil
}

// ─── Administration ─────────────────────────────────────────────────────────

func (c *Client) SetRole(ctx context.Context, roleID domain.RoleID, authorized domain.Identity, isAuthorized bool) error {
	params := struct {
		RoleID       uint64 `json:"roleId"`
		Authorized   string `json:"authorizedAddress"`
		IsAuthorized bool   `json:"isAuthorized"`
	}{uint64(roleID), string(authorized), isAuthorized}
	return c.call(ctx, "setRole", params, nil)
}

func (c *Client) SetOperator(ctx context.Context, interfaceID domain.InterfaceID, roleID domain.RoleID, isAuthorized bool) error {
	params := struct {
		InterfaceID  string `json:"interfaceId"`
		RoleID       uint64 `json:"roleId"`
		IsAuthorized bool   `json:"isAuthorized"`
	}{string(interfaceID), uint64(roleID), isAuthorized}
	return c.call(ctx, "setOperator", params, nil)
}

func (c *Client) SetMinQuorum(ctx context.Context, quorum domain.QuorumAmount) error {
	params := struct {
		Quorum uint64 `json:"quorum"`
	}{uint64(quorum)}
	return c.call(ctx, "setMinQuorum", params, nil)
}

func (c *Client) Deposit(ctx context.Context, roleID domain.RoleID, amount domain.Amount) error {
	params := struct {
		RoleID uint64 `json:"roleId"`
		Amount string `json:"amount"`
	}{uint64(roleID), string(amount)}
	return c.call(ctx, "deposit", params, nil)
}
