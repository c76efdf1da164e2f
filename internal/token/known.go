package token

// KnownSymbols is the static symbol table for frequently-traded mints,
// grounded on original_source's KNOWN_TOKEN_SYMBOLS dict. Resolve first
// tries the input as a base58 mint address and falls back to this table.
var KnownSymbols = map[string]string{
	"SOL":  "So11111111111111111111111111111111111111112",
	"WSOL": "So11111111111111111111111111111111111111112",
	"USDC": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"USDT": "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
	"BONK": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
	"JUP":  "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",
}
