package director

import (
	"fmt"

	"github.com/openfroyo/plancore/pkg/core"
)

// LookUpWorkingObject returns the working counterpart of an external object under
// the solution's lookup strategy. A nil input returns nil without error.
func (d *ScoreDirector[S]) LookUpWorkingObject(external any) (any, error) {
	if core.IsNil(external) {
		return nil, nil
	}
	if err := d.checkAttached("look_up_working_object"); err != nil {
		return nil, d.fail(err)
	}
	working, err := d.lookups.LookUpWorkingObject(external)
	if err != nil {
		return nil, d.fail(err)
	}
	return working, nil
}

// LookUpWorkingObjectOrReturnNull is LookUpWorkingObject returning nil when
// nothing matches. Disabled strategies and unsupported types still fail.
func (d *ScoreDirector[S]) LookUpWorkingObjectOrReturnNull(external any) (any, error) {
	if core.IsNil(external) {
		return nil, nil
	}
	if err := d.checkAttached("look_up_working_object_or_return_null"); err != nil {
		return nil, d.fail(err)
	}
	working, err := d.lookups.LookUpWorkingObjectOrReturnNull(external)
	if err != nil {
		return nil, d.fail(err)
	}
	return working, nil
}

// LookUp is the typed form of LookUpWorkingObject.
func LookUp[T any, S any](d *ScoreDirector[S], external T) (T, error) {
	working, err := d.LookUpWorkingObject(external)
	return typed[T](working, err)
}

// LookUpOrNil is the typed form of LookUpWorkingObjectOrReturnNull.
func LookUpOrNil[T any, S any](d *ScoreDirector[S], external T) (T, error) {
	working, err := d.LookUpWorkingObjectOrReturnNull(external)
	return typed[T](working, err)
}

func typed[T any](working any, err error) (T, error) {
	var zero T
	if err != nil || working == nil {
		return zero, err
	}
	t, ok := working.(T)
	if !ok {
		return zero, core.NewUsageError(fmt.Sprintf("working object %T is not a %T", working, zero), nil).
			WithCode(core.ErrCodeTypeMismatch).
			WithOperation("look_up")
	}
	return t, nil
}
