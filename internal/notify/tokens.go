package notify

import "strconv"

const fullTokensLimit = 10_000

// FormatTokens renders a token total for display, switching to a "k"
// suffix once the amount exceeds 10,000.
func FormatTokens(tokens int64) string {
  if tokens > fullTokensLimit {
    return strconv.FormatFloat(float64(tokens)/1e3, 'f', -1, 64) + "k"
  }
  return strconv.FormatInt(tokens, 10)
}

// tokensFromMtokens converts a string-encoded millitoken total to whole
// tokens, discarding the millitoken remainder. Unparseable input is zero.
func tokensFromMtokens(mtokens string) int64 {
  parsed, err := strconv.ParseInt(mtokens, 10, 64)
  if err != nil {
    return 0
  }
  return parsed / 1e3
}

// formatFeeMtokens renders a millitoken fee with millitoken precision.
func formatFeeMtokens(mtokens string) string {
  parsed, err := strconv.ParseInt(mtokens, 10, 64)
  if err != nil || parsed < 0 {
    return "0"
  }
  whole := parsed / 1e3
  rest := parsed % 1e3
  if rest == 0 {
    return strconv.FormatInt(whole, 10)
  }
  return strconv.FormatInt(whole, 10) + "." + pad3(rest)
}

func pad3(n int64) string {
  s := strconv.FormatInt(n, 10)
  for len(s) < 3 {
    s = "0" + s
  }
  return s
}
