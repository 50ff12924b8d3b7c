// Copyright © 2021 One Concern

package resource

import (
	"context"
	"io"
	"strings"

	"github.com/oneconcern/butleruri/pkg/uri"
	opentracing "github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

// Instrument decorates a resource with tracing spans and log lines for
// every operation.
func Instrument(tr opentracing.Tracer, logger *zap.Logger, res Resource) Resource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumentedResource{
		tr:       tr,
		resource: res,
		l:        logger.With(zap.Stringer("resource", res.URI())),
	}
}

type instrumentedResource struct {
	resource Resource
	tr       opentracing.Tracer
	l        *zap.Logger
}

func (i *instrumentedResource) opName(name string) string {
	return strings.Join([]string{"resource", i.resource.URI().Scheme(), name}, ".")
}

func (i *instrumentedResource) spanFromContext(ctx context.Context, name string) opentracing.Span {
	parent := opentracing.SpanFromContext(ctx)
	if parent != nil {
		return i.tr.StartSpan(name, opentracing.ChildOf(parent.Context()))
	}
	return i.tr.StartSpan(name)
}

func (i *instrumentedResource) String() string { return i.resource.String() }

func (i *instrumentedResource) URI() uri.URI { return i.resource.URI() }

func (i *instrumentedResource) Exists(ctx context.Context) (bool, error) {
	span := i.spanFromContext(ctx, i.opName("Exists"))
	defer span.Finish()
	i.l.Info("resource exists")

	return i.resource.Exists(ctx)
}

func (i *instrumentedResource) Size(ctx context.Context) (int64, error) {
	span := i.spanFromContext(ctx, i.opName("Size"))
	defer span.Finish()
	i.l.Info("resource size")

	return i.resource.Size(ctx)
}

func (i *instrumentedResource) Open(ctx context.Context) (io.ReadCloser, error) {
	span := i.spanFromContext(ctx, i.opName("Open"))
	defer span.Finish()
	i.l.Info("resource open")

	return i.resource.Open(ctx)
}

func (i *instrumentedResource) Read(ctx context.Context) ([]byte, error) {
	span := i.spanFromContext(ctx, i.opName("Read"))
	defer span.Finish()
	i.l.Info("resource read")

	return i.resource.Read(ctx)
}

func (i *instrumentedResource) Write(ctx context.Context, data []byte, overwrite bool) error {
	span := i.spanFromContext(ctx, i.opName("Write"))
	defer span.Finish()
	i.l.Info("resource write", zap.Int("bytes", len(data)), zap.Bool("overwrite", overwrite))

	return i.resource.Write(ctx, data, overwrite)
}

func (i *instrumentedResource) Remove(ctx context.Context) error {
	span := i.spanFromContext(ctx, i.opName("Remove"))
	defer span.Finish()
	i.l.Info("resource remove")

	return i.resource.Remove(ctx)
}

func (i *instrumentedResource) Mkdir(ctx context.Context) error {
	span := i.spanFromContext(ctx, i.opName("Mkdir"))
	defer span.Finish()
	i.l.Info("resource mkdir")

	return i.resource.Mkdir(ctx)
}

func (i *instrumentedResource) AsLocal(ctx context.Context) (*Local, error) {
	span := i.spanFromContext(ctx, i.opName("AsLocal"))
	defer span.Finish()
	i.l.Info("resource as local")

	return i.resource.AsLocal(ctx)
}

func (i *instrumentedResource) TransferFrom(ctx context.Context, src Resource, mode TransferMode, overwrite bool) error {
	span := i.spanFromContext(ctx, i.opName("TransferFrom"))
	defer span.Finish()
	i.l.Info("resource transfer",
		zap.Stringer("source", src.URI()),
		zap.String("mode", string(mode)),
		zap.Bool("overwrite", overwrite))

	return i.resource.TransferFrom(ctx, src, mode, overwrite)
}

func (i *instrumentedResource) Walk(ctx context.Context, fn WalkFunc) error {
	span := i.spanFromContext(ctx, i.opName("Walk"))
	defer span.Finish()
	i.l.Info("resource walk")

	w, ok := i.resource.(Walker)
	if !ok {
		return errNotWalkable(i.resource)
	}
	return w.Walk(ctx, fn)
}
