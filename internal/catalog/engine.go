package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"souq/internal/media"
	"souq/internal/store"
)

// Media is the slice of the media manager the engine needs.
type Media interface {
	Upload(ctx context.Context, files []media.File, folder string, tags []string) ([]media.Asset, error)
	Replace(ctx context.Context, oldPublicIDs []string, files []media.File, folder string, tags []string) ([]media.Asset, error)
	PurgePath(ctx context.Context, prefix string) error
}

// Engine owns every mutation of the catalog hierarchy. It keeps three things
// consistent that live in different systems: the records themselves, the
// child-id arrays on their parents, and the media tree that mirrors the
// hierarchy. Record writes for one operation run in a single transaction;
// media work happens outside it, before the transaction on create and after
// it on delete.
type Engine struct {
	store  store.Storage
	media  Media
	paths  *PathResolver
	ids    *CustomIDGenerator
	logger *zap.SugaredLogger
}

func NewEngine(st store.Storage, md Media, paths *PathResolver, ids *CustomIDGenerator, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		store:  st,
		media:  md,
		paths:  paths,
		ids:    ids,
		logger: logger,
	}
}

func toImage(a media.Asset) store.Image {
	return store.Image{URL: a.URL, PublicID: a.PublicID}
}

func toImages(assets []media.Asset) []store.Image {
	images := make([]store.Image, 0, len(assets))
	for _, a := range assets {
		images = append(images, toImage(a))
	}
	return images
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// discardUploads best-effort removes media uploaded for a record whose
// insert did not commit, so failed creates leave no orphans behind.
func (e *Engine) discardUploads(ctx context.Context, folder string) {
	if err := e.media.PurgePath(ctx, folder); err != nil {
		e.logger.Errorw("failed to discard uploads after aborted create", "folder", folder, "error", err)
	}
}

// purgeMedia removes the media subtree of a deleted node. Descendant folders
// nest under the node's own path, so one purge covers the whole cascade.
// Record deletion has already committed, so a purge failure is logged and
// reported but cannot be rolled back.
func (e *Engine) purgeMedia(ctx context.Context, folder string) error {
	if err := e.media.PurgePath(ctx, folder); err != nil {
		e.logger.Errorw("media purge failed after delete", "folder", folder, "error", err)
		return fmt.Errorf("purge media: %w", err)
	}
	return nil
}

// syncFailure logs a reference-array inconsistency before it is surfaced.
// These should never happen inside a transaction; when one does, the log
// line is the alarm trail.
func (e *Engine) syncFailure(op string, parentID, childID primitive.ObjectID) error {
	e.logger.Errorw("reference array out of sync",
		"op", op,
		"parent_id", parentID.Hex(),
		"child_id", childID.Hex(),
	)
	return ErrReferenceSync
}

func asParentNotFound(err error, kind string, id primitive.ObjectID) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrParentNotFound, kind, id.Hex())
	}
	return err
}
