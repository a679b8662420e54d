// Package chat holds the console's conversation domain: conversation ids,
// patient profile enrichment, the conversation aggregator, the live thread
// watcher and the messenger that appends text and media messages.
package chat
