package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/oksasatya/go-ddd-user-service/config"
	userapp "github.com/oksasatya/go-ddd-user-service/internal/application"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-service/pkg/helpers"
)

type snapshot struct {
	ExportedAt time.Time     `json:"exported_at"`
	Count      int           `json:"count"`
	Users      []entity.User `json:"users"`
}

func buildSnapshot(ctx context.Context, svc *userapp.Service, now time.Time) (snapshot, error) {
	users, err := svc.GetAll(ctx)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{ExportedAt: now, Count: len(users), Users: users}, nil
}

func snapshotObject(at time.Time) string {
	return "exports/users-" + at.UTC().Format("20060102T150405Z") + ".json"
}

func encodeSnapshot(w io.Writer, snap snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func writeSnapshot(path string, snap snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeSnapshot(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func uploadSnapshot(ctx context.Context, cfg *config.Config, snap snapshot) (string, error) {
	client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Close() }()
	return helpers.UploadJSON(ctx, client, cfg.GCSBucket, snapshotObject(snap.ExportedAt), snap)
}
