package config

type Config struct {
	Telegram TelegramConf `json:"telegram"`
	Binance  BinanceConf  `json:"binance"`
	Feed     FeedConf     `json:"feed"`
	Trading  TradingConf  `json:"trading"`
	LLM      LlmConf      `json:"llm"`
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}

type BinanceConf struct {
	APIKey   string `json:"api_key"`
	Secret   string `json:"secret"`
	ProxyURL string `json:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
}

type FeedConf struct {
	PumpPortalURL    string `json:"pump_portal_url"`    // pumpportal 长连接地址，留空使用默认
	DexScreenerURL   string `json:"dex_screener_url"`   // dexscreener 接口地址，留空使用默认
	ScanIntervalSecs int    `json:"scan_interval_secs"` // 轮询扫描周期（秒），默认15
}

type TradingConf struct {
	WalletAddress    string  `json:"wallet_address"`     // 机器人使用的钱包标识
	Network          string  `json:"network"`            // 网络标识，默认 solana
	InitialBalance   float64 `json:"initial_balance"`    // 模拟账户初始余额（SOL），默认10
	AutoStart        bool    `json:"auto_start"`         // 启动后是否自动开启自动交易
	TickIntervalSecs int     `json:"tick_interval_secs"` // 持仓巡检周期（秒），默认10
	DailyLimit       float64 `json:"daily_limit"`        // 自动交易每日限额（SOL），默认10
	MaxTradeSize     float64 `json:"max_trade_size"`     // 自动交易单笔上限（SOL），默认0.5
}

type LlmConf struct {
	Enabled  bool   `json:"enabled"`   // 是否启用LLM决策，关闭时使用规则策略
	BaseURL  string `json:"base_url"`  // LLM API基础URL
	APIKey   string `json:"api_key"`   // LLM API密钥
	Model    string `json:"model"`     // 模型名称
	ProxyURL string `json:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
}
