// Copyright 2026 The Logward Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"

	"github.com/logward/logward/internal/grn"
)

type contextKey string

const actorKey contextKey = "actor"

// GetActor retrieves the acting principal from context. Zero when the
// request carried no verified identity.
func GetActor(ctx context.Context) grn.GRN {
	if val, ok := ctx.Value(actorKey).(grn.GRN); ok {
		return val
	}
	return grn.GRN{}
}

// WithActor binds the acting principal to the context.
func WithActor(ctx context.Context, actor grn.GRN) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}
