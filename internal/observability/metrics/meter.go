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

package metrics

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps the OpenTelemetry meter and the instruments the authorization
// core records on.
type Meter struct {
	meter metric.Meter

	Resolutions   metric.Int64Counter
	GrantChanges  metric.Int64Counter
	GrantsSwept   metric.Int64Counter
	StaleSkipped  metric.Int64Counter
	ResolveMillis metric.Float64Histogram
}

// New creates the meter and its instruments. When disabled, the noop global
// meter is used and every recording is free.
func New(cfg Config, serviceName string) (*Meter, error) {
	name := serviceName
	if !cfg.Enabled {
		name = "noop"
	}
	meter := otel.Meter(name)

	resolutions, err := meter.Int64Counter("authz.resolutions",
		metric.WithDescription("Permission resolutions performed"))
	if err != nil {
		return nil, fmt.Errorf("failed to create resolutions counter: %w", err)
	}
	grantChanges, err := meter.Int64Counter("authz.grant_changes",
		metric.WithDescription("Grant create/update/delete operations"))
	if err != nil {
		return nil, fmt.Errorf("failed to create grant change counter: %w", err)
	}
	grantsSwept, err := meter.Int64Counter("authz.grants_swept",
		metric.WithDescription("Orphaned grants removed by the collector"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sweep counter: %w", err)
	}
	staleSkipped, err := meter.Int64Counter("authz.stale_grants_skipped",
		metric.WithDescription("Grants skipped during resolution for unknown capabilities"))
	if err != nil {
		return nil, fmt.Errorf("failed to create stale counter: %w", err)
	}
	resolveMillis, err := meter.Float64Histogram("authz.resolve_duration",
		metric.WithDescription("Permission resolution latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("failed to create resolve histogram: %w", err)
	}

	return &Meter{
		meter:         meter,
		Resolutions:   resolutions,
		GrantChanges:  grantChanges,
		GrantsSwept:   grantsSwept,
		StaleSkipped:  staleSkipped,
		ResolveMillis: resolveMillis,
	}, nil
}
