package port

// Matcher decides whether a retrieved item name counts as a relevant one.
type Matcher interface {
	Match(retrieved, relevant string) bool
	Name() string
}
