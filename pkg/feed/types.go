package feed

// TokenData pumpportal 推送的新代币消息
type TokenData struct {
	Mint               string  `json:"mint"`
	Name               string  `json:"name"`
	Symbol             string  `json:"symbol"`
	Price              float64 `json:"price"`
	UsdMarketCap       float64 `json:"usd_market_cap"`
	MarketCapSol       float64 `json:"market_cap_sol"`
	VirtualSolReserves float64 `json:"virtual_sol_reserves"`
	Pool               string  `json:"pool"`
	Creator            string  `json:"creator"`
	TxType             string  `json:"txType"`
	Signature          string  `json:"signature"`
}

// TradeData pumpportal 推送的代币成交消息
type TradeData struct {
	Mint         string  `json:"mint"`
	TxType       string  `json:"txType"`
	TokenAmount  float64 `json:"tokenAmount"`
	SolAmount    float64 `json:"solAmount"`
	MarketCapSol float64 `json:"marketCapSol"`
	Trader       string  `json:"traderPublicKey"`
}

// TokenProfile dexscreener 最新代币档案
type TokenProfile struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	URL          string `json:"url"`
}

// TokenPair dexscreener 交易对详情
type TokenPair struct {
	ChainID   string `json:"chainId"`
	DexID     string `json:"dexId"`
	PairAddr  string `json:"pairAddress"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUsd    string `json:"priceUsd"`
	PriceNative string `json:"priceNative"`
	Liquidity   struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
	MarketCap     float64 `json:"marketCap"`
	Fdv           float64 `json:"fdv"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
	PriceChange   struct {
		H1  float64 `json:"h1"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
}
