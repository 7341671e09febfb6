// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package proxy performs the outbound half of the gateway: it issues requests
// to the fixed third-party upstreams with a tuned transport, classifies their
// failures, and wraps session-authenticated calls in a single
// refresh-and-retry round when the trading upstream rejects the credential.
package proxy
