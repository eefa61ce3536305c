package auth

// Route is a view the application can be sent to.
type Route string

const (
	RouteLogin     Route = "login"
	RouteDocuments Route = "documents"
)

// Navigator receives navigation intents. The CLI ignores them; the panel
// switches views.
type Navigator interface {
	Navigate(Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

// Navigate calls f(r).
func (f NavigatorFunc) Navigate(r Route) { f(r) }

type nopNavigator struct{}

func (nopNavigator) Navigate(Route) {}

// NopNavigator discards every intent.
func NopNavigator() Navigator { return nopNavigator{} }
