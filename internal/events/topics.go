package events

// Topic constants for domain events emitted by the service.
const (
	TopicQuoteComputed = "quote.computed"
	TopicRuleCreated   = "rule.created"
	TopicRuleUpdated   = "rule.updated"
	TopicRuleArchived  = "rule.archived"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicQuoteComputed,
		TopicRuleCreated,
		TopicRuleUpdated,
		TopicRuleArchived,
	}
}
