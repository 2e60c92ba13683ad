package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

// nopTokenCache is used when no cache is configured; every lookup misses.
type nopTokenCache struct{}

func (nopTokenCache) Get(context.Context, string) (uuid.UUID, bool, error) { return uuid.Nil, false, nil }
func (nopTokenCache) Set(context.Context, string, uuid.UUID) error         { return nil }
func (nopTokenCache) Delete(context.Context, string) error                 { return nil }

type nopAuditRecorder struct{}

func (nopAuditRecorder) Record(domain.AuditEvent) {}
