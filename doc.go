// Package quickmail validates, filters and sends the mail composed on a
// WordPress site, honouring whichever mail provider plugin is active.
//
// Addresses are checked for length and syntax and, optionally, for an MX
// record on their domain. Recipient lists typed into a form are split into
// accepted, invalid and duplicate entries, and the result can be written in
// the tab separated form the compose page expects.
//
// When the Mailgun, SparkPost or SendGrid plugin is active and configured,
// the sender's name, address and reply-to are rewritten the way that plugin
// would rewrite them, and the message goes out through the provider's API.
// Otherwise an SMTP relay or Amazon SES may be configured as the default.
//
// # Basic Usage
//
//	client, err := quickmail.New(quickmail.DefaultConfig(),
//		quickmail.WithVerifyDomains(true),
//		quickmail.WithSMTP("localhost", "25"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	result := client.FilterRecipients(ctx, "me@example.com", "a@example.com, a@example.com, nope")
//	fmt.Println(result.String())
//
//	_, err = client.Send(ctx, &quickmail.Message{
//		From:     quickmail.Address{Name: "Site Admin", Email: "admin@example.com"},
//		To:       []quickmail.Address{{Email: "user@example.com"}},
//		Subject:  "Welcome",
//		TextBody: "Welcome!",
//	})
//
// # Transports
//
//   - Mailgun, SparkPost and SendGrid, selected by the active plugin
//   - Amazon SES
//   - Generic SMTP
package quickmail
