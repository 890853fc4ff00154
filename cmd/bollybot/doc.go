// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Bollybot posts Bollywood gossip to X (Twitter).

Every three and a half hours, give or take fifteen minutes, it takes the
freshest headline from a news feed, asks Gemini for keywords and a punchy
Hinglish post about it, and publishes the post. Headlines that were posted
recently are skipped.

# Usage

	$ bollybot [flags...]

# Environment Variables

Credentials are read from the environment. A .env file in the working
directory is loaded first; variables already set in the environment win.

  - GEMINI_API_KEY: Gemini API key.
  - TWITTER_API_KEY: consumer (app) key.
  - TWITTER_API_SECRET: consumer (app) secret.
  - ACCESS_TOKEN: access token of the posting account.
  - ACCESS_SECRET: access token secret of the posting account.

Every flag can also be set by the environment variable named in its
description.

# Failures

When X reports a rate limit, bollybot waits 30 minutes before trying again.
Other failures, like network errors or Gemini errors, are retried after 5
minutes. If X rejects the credentials, bollybot logs a CRITICAL line and
exits with a non-zero status.

# Feed Rules

The -rules flag points to a Starlark file that filters feed entries before
one is picked:

	block_rule = lambda item: "cricket" in item.title.lower()
	keep_rule = lambda item: "#promo" not in item.description

An entry is dropped if block_rule returns true or keep_rule returns false. The
item has the following keys: title, url, description and categories.

# State

Recently posted headlines are kept in the -history file, a JSON array with the
five most recent headlines first. Only one bollybot can use a history file at a
time.

# Debugging

With -debug-addr set, bollybot serves /health, /metrics, /debug/status and
/debug/log (the live log) on that address.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/bollybot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
