package delegated

import "fmt"

// App identifies the product namespace a managed group belongs to.
type App string

const (
	AppJira       App = "jira"
	AppConfluence App = "confluence"
)

// ParseApp maps an application tag to its canonical App value,
// case-insensitively. Unknown tags are an error; callers doing pure
// lookups should pass the raw string through Fold instead, so that an
// unknown tag matches nothing rather than failing.
func ParseApp(in string) (App, error) {
	switch App(Fold(in)) {
	case AppJira:
		return AppJira, nil
	case AppConfluence:
		return AppConfluence, nil
	}
	return "", fmt.Errorf("unknown application %q", in)
}
