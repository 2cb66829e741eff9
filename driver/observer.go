// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"github.com/SAP/go-nosql/driver/types"
)

// Observer receives side-channel events of the request pipeline.
// Implementations must be fast and non-blocking; they run on the
// request's goroutine. Callers not interested in events simply do not
// register an observer.
type Observer interface {
	// OnError fires on final failure of a request.
	OnError(req Request, err error)
	// OnRetryable fires before each retry.
	OnRetryable(req Request, err error)
	// OnConsumedCapacity fires for every data-path result.
	OnConsumedCapacity(req Request, c *Capacity)
	// OnTableState fires when a table result passes through the
	// pipeline.
	OnTableState(req Request, table string, state types.TableState)
}

func (c *Client) emitError(req Request, err error) {
	for _, o := range c.observers {
		o.OnError(req, err)
	}
}

func (c *Client) emitRetryable(req Request, err error) {
	for _, o := range c.observers {
		o.OnRetryable(req, err)
	}
}

func (c *Client) emitConsumedCapacity(req Request, cap *Capacity) {
	for _, o := range c.observers {
		o.OnConsumedCapacity(req, cap)
	}
}

func (c *Client) emitTableState(req Request, table string, state types.TableState) {
	for _, o := range c.observers {
		o.OnTableState(req, table, state)
	}
}
