package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor/object"
	"github.com/sirupsen/logrus"

	"github.com/Tired-Fox/papi/internal/model"
)

// errFound stops the tree walk of find at the first match.
var errFound = errors.New("found")

// makeFindFn creates the "find" host function.
//
// find(ref) → file map or nil
//
// ref is either a root-relative path ("sub/mod.py") or a url ("/sub/mod/").
func makeFindFn(root *model.Module, conv *converter) *object.Builtin {
	return object.NewBuiltin("find", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("find", 1, len(args))
		}
		ref, err := toString(args[0])
		if err != nil {
			return object.Errorf("find: %v", err)
		}
		if root == nil {
			return object.Nil
		}

		var found *model.File
		err = root.Walk(func(n model.Node) error {
			if f, ok := n.(*model.File); ok && (f.Path == ref || f.URL() == ref) {
				found = f
				return errFound
			}
			return nil
		})
		if !errors.Is(err, errFound) {
			return object.Nil
		}
		return conv.file(found)
	})
}

// makeSignatureFn creates the "signature" host function.
//
// signature(entity) → string
//
// Only methods and classes have a signature; the rendered code of other
// entities is an assignment or import line.
func makeSignatureFn() *object.Builtin {
	return object.NewBuiltin("signature", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("signature", 1, len(args))
		}
		m, ok := args[0].(*object.Map)
		if !ok {
			return object.Errorf("signature: expected an entity map, got %s", args[0].Type())
		}
		kind, _ := m.Get("kind").Interface().(string)
		switch model.Kind(kind) {
		case model.KindMethod, model.KindClass:
			return m.Get("code")
		default:
			return object.Errorf("signature: %q entities have no signature", kind)
		}
	})
}

// makeWriteFn creates the "write" host function.
//
// write(path, content) → string (the file written)
//
// path must be relative and stay inside outDir.
func makeWriteFn(outDir string, logger logrus.FieldLogger) *object.Builtin {
	return object.NewBuiltin("write", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("write", 2, len(args))
		}
		rel, err := toString(args[0])
		if err != nil {
			return object.Errorf("write: path: %v", err)
		}
		content, err := toString(args[1])
		if err != nil {
			return object.Errorf("write: content: %v", err)
		}

		clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(rel, "/")))
		if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return object.Errorf("write: %q escapes the output directory", rel)
		}
		full := filepath.Join(outDir, clean)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return object.Errorf("write: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return object.Errorf("write: %v", err)
		}
		logger.WithField("file", full).Debug("wrote output")
		return object.NewString(full)
	})
}

// logObject provides log.Info/Warn/Error/Debug methods for Risor scripts.
type logObject struct {
	logger logrus.FieldLogger
}

func (l *logObject) Info(msg string) {
	l.logger.WithField("source", "script").Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.WithField("source", "script").Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.WithField("source", "script").Error(msg)
}

func (l *logObject) Debug(msg string) {
	l.logger.WithField("source", "script").Debug(msg)
}

func toString(obj object.Object) (string, error) {
	s, ok := obj.(*object.String)
	if !ok {
		return "", fmt.Errorf("expected string, got %s", obj.Type())
	}
	return s.Value(), nil
}
