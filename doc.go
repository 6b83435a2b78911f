// Package market-connector provides clients for prediction-market APIs
// and a Parquet cache layer for their market data.
//
// The core of the library is a signed client for the Kalshi trade API:
// public market data (markets, events, series, candlesticks) needs no
// credentials, while portfolio endpoints authenticate with either a
// bearer token or an RSA-PSS request-signing scheme. A companion client
// covers Polymarket's public Gamma API.
//
// Core Features:
//
//   - Bearer-token and RSA-PSS signed authentication for Kalshi
//   - Automatic retry with exponential backoff on rate limiting and
//     server errors
//   - Cursor pagination and chunked candlestick history fetches
//   - Real-time ticker streaming over WebSocket with reconnection
//   - Parquet-backed caching of markets, summaries and candles
//
// # Standard Errors
//
// The interfaces package defines standardized errors so callers can
// classify failures without string matching:
//
//   - ErrAuthenticationFailed: the venue rejected the credentials on an
//     authenticated call (HTTP 401)
//
//   - ErrNoCredentials: an authenticated endpoint was called on a client
//     constructed without any credential
//
//   - ErrMissingKeyID: request signing was attempted without an
//     access-key identifier
//
//   - ErrMalformedPrivateKey: the configured private key cannot be
//     parsed as a PEM-encoded RSA key
//
//   - ErrInvalidGranularity: an unsupported candle granularity was
//     requested
//
//   - ErrInvalidTimeRange: an invalid time range was provided (e.g. end
//     before start)
//
//   - ErrNotConnected: a stream operation was attempted before the
//     connection was established or after it was lost
//
// Other non-2xx HTTP responses surface as *interfaces.VenueError carrying
// the venue name, status code and response body.
//
// # Examples
//
// Public market data needs no credentials:
//
//	client := kalshi.NewClient(nil)
//
//	markets, err := client.GetAllMarkets(ctx, kalshi.MarketsParams{
//	    Limit:  1000,
//	    Status: "open",
//	})
//
// Authenticated portfolio access with request signing:
//
//	options := interfaces.NewVenueOptions().
//	    WithCredential(interfaces.RSAKey("your-key-id", "/path/to/key.pem"))
//	client := kalshi.NewClient(options)
//
//	balance, err := client.GetBalance(ctx)
//	if err != nil {
//	    switch {
//	    case errors.Is(err, interfaces.ErrAuthenticationFailed):
//	        log.Fatal("check your credentials")
//	    case errors.Is(err, interfaces.ErrMalformedPrivateKey):
//	        log.Fatal("check your private key file")
//	    default:
//	        log.Fatalf("balance fetch failed: %v", err)
//	    }
//	}
//
// Candlestick history is chunked transparently; a multi-month hourly
// range is fetched in as many requests as the server cap requires:
//
//	candles, err := client.GetCandlesticks(ctx, "INXD-26SEP01", "1h",
//	    time.Now().Add(-90*24*time.Hour).Unix(), time.Now().Unix())
//
// Real-time ticker updates:
//
//	stream, err := client.NewStream()
//	if err != nil {
//	    log.Fatalf("stream setup failed: %v", err)
//	}
//	if err := stream.Connect(ctx); err != nil {
//	    log.Fatalf("stream connect failed: %v", err)
//	}
//	defer stream.Close()
//
//	err = stream.SubscribeTicker([]string{"INXD-26SEP01"}, func(u kalshi.TickerUpdate) {
//	    fmt.Printf("%s: price=%d volume=%d\n", u.MarketTicker, u.Price, u.Volume)
//	})
//
// The refresh package ties the clients to the Parquet store; see
// cmd/refresh for an end-to-end cache refresh.
package marketconnector
