// Package notify sends transactional email for billing lifecycle moments:
// trial start, trial completion, the approaching retention delete, and
// subscription activation.
//
// Production uses Postmark; development writes emails to disk so flows can
// be inspected without a mail account. Both sit behind the Sender interface,
// and the Notifier renders the lifecycle messages on top of it.
package notify
