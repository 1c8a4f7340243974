// Package chat holds the conversation transcript and chat submission.
//
// Submission records the user's line in the transcript first and only then
// tries the channel. A closed channel is not an error from the user's point
// of view: the entry stays in the transcript and nothing is queued for later.
//
// Entries can be persisted through a Store. SQLiteStore keeps them in the
// transcript table created by the embedded migrations.
package chat
