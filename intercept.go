package validity

import (
	"context"
	"time"

	"github.com/jensneuse/abstractlogger"

	"github.com/hanpama/validity/internal/eventbus"
	"github.com/hanpama/validity/internal/events"
	"github.com/hanpama/validity/schema"
)

// wrapField installs the interception layer on a single field. Fields with
// no resolver are skipped, and the side-table marker is set before the
// replacement is installed so overlapping traversals cannot wrap twice.
func (w *Wrapper) wrapField(f *schema.Field, parentType string) {
	if f == nil || f.Resolve == nil {
		return
	}
	if _, done := w.wrappedFields[f]; done {
		return
	}
	w.wrappedFields[f] = struct{}{}

	orig := f.Resolve
	fieldName := f.Name
	returnType := f.Type.NamedTypeName()
	fieldSel := FieldSelector(parentType, fieldName)

	f.Resolve = func(ctx context.Context, source any, args map[string]any) (any, error) {
		vc := w.opt.FindContext(ctx, source, args)
		if vc == nil {
			// No validation context on this request: behave exactly like
			// the unwrapped resolver.
			return orig(ctx, source, args)
		}
		value, err := w.resolveChecked(ctx, vc, orig, source, args, parentType, fieldName, returnType, fieldSel)
		if err != nil && w.opt.WrapErrors {
			return nil, w.opt.UnhandledErrorWrapper(err)
		}
		return value, err
	}
}

// resolveChecked runs the full interception contract: global validation
// (once per request), selected local validators, the original resolver,
// data+errors unwrapping, and profiling.
func (w *Wrapper) resolveChecked(
	ctx context.Context,
	vc *Context,
	orig schema.ResolveFunc,
	source any,
	args map[string]any,
	parentType, fieldName, returnType, fieldSel string,
) (any, error) {
	start := time.Now()

	// Precedence: every-field validators, then return-type validators, then
	// the field-specific ones. Concatenated as-is, duplicates included.
	var selected []Validator
	selected = append(selected, w.reg.Lookup(SelectorAll)...)
	selected = append(selected, w.reg.Lookup(returnType)...)
	selected = append(selected, w.reg.Lookup(fieldSel)...)

	if vc.claimGlobal() {
		if err := w.runGlobal(ctx, vc, source, args); err != nil {
			return nil, err
		}
	}

	violations := 0
	for _, v := range selected {
		rs, err := v(ctx, source, args)
		if err != nil {
			return nil, err
		}
		violations += len(rs)
		vc.AppendLocal(rs...)
	}
	validated := time.Now()

	value, err := orig(ctx, source, args)
	if err != nil {
		eventbus.Publish(ctx, events.FieldResolved{
			ObjectType:         parentType,
			Field:              fieldName,
			Start:              start,
			ValidationDuration: validated.Sub(start),
			TotalDuration:      time.Since(start),
			Violations:         violations,
			Err:                err,
		})
		return nil, err
	}

	value, unwrapped := unwrapDataErrors(value)
	violations += len(unwrapped)
	vc.AppendLocal(unwrapped...)
	finished := time.Now()

	if w.opt.EnableProfiling {
		w.recordProfile(ctx, vc, fieldName, start, validated, finished)
	}
	eventbus.Publish(ctx, events.FieldResolved{
		ObjectType:         parentType,
		Field:              fieldName,
		Start:              start,
		ValidationDuration: validated.Sub(start),
		TotalDuration:      finished.Sub(start),
		Violations:         violations,
	})
	return value, nil
}

// runGlobal executes the "$" validators in registration order. The caller
// has already claimed the run, so this happens at most once per request even
// when other fields resolve concurrently while it is still in flight.
func (w *Wrapper) runGlobal(ctx context.Context, vc *Context, source any, args map[string]any) error {
	start := time.Now()
	violations := 0
	for _, v := range w.reg.Lookup(SelectorGlobal) {
		rs, err := v(ctx, source, args)
		if err != nil {
			return err
		}
		violations += len(rs)
		vc.appendGlobal(rs...)
	}
	eventbus.Publish(ctx, events.GlobalValidation{
		Start:      start,
		Duration:   time.Since(start),
		Violations: violations,
	})
	return nil
}

// unwrapDataErrors splits a combined data+errors resolver result into the
// effective field value and the violations to record.
func unwrapDataErrors(value any) (any, []Result) {
	switch de := value.(type) {
	case *DataErrors:
		if de == nil {
			return nil, nil
		}
		return de.Data, de.Errors
	case DataErrors:
		return de.Data, de.Errors
	default:
		return value, nil
	}
}

// recordProfile appends a timing record for one field resolution. Missing
// field-location metadata is logged and tolerated; recording never affects
// the resolver's return value.
func (w *Wrapper) recordProfile(ctx context.Context, vc *Context, fieldName string, start, validated, finished time.Time) {
	path, ok := schema.PathFromContext(ctx)
	if !ok {
		w.opt.Logger.Debug("validity: no field path on context, recording profile without location",
			abstractlogger.String("field", fieldName),
		)
	}
	validation := validated.Sub(start)
	execution := finished.Sub(start)
	vc.appendProfile(ProfilingRecord{
		Path:               path,
		FieldName:          fieldName,
		ValidationDuration: validation,
		ExecutionDuration:  execution,
		TotalExecution:     execution - validation,
	})
}
