package portalauth

import "context"

// Navigator is the router a view navigates with.
type Navigator interface {
	// Navigate performs in-app navigation to path. It may fail, for example
	// when the router is not ready.
	Navigate(ctx context.Context, path string) error
	// HardRedirect performs a full reload at path. It cannot fail.
	HardRedirect(path string)
}

// NopNavigator ignores every navigation request.
type NopNavigator struct{}

func (NopNavigator) Navigate(context.Context, string) error { return nil }

func (NopNavigator) HardRedirect(string) {}

// NavigatorFuncs adapts plain functions to [Navigator]. Nil fields are no-ops.
type NavigatorFuncs struct {
	NavigateFunc     func(ctx context.Context, path string) error
	HardRedirectFunc func(path string)
}

func (n NavigatorFuncs) Navigate(ctx context.Context, path string) error {
	if n.NavigateFunc == nil {
		return nil
	}
	return n.NavigateFunc(ctx, path)
}

func (n NavigatorFuncs) HardRedirect(path string) {
	if n.HardRedirectFunc != nil {
		n.HardRedirectFunc(path)
	}
}
