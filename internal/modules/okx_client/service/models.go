package service

type okxInstrument struct {
	InstID   string `json:"instId"`
	TickSz   string `json:"tickSz"`
	LotSz    string `json:"lotSz"`
	MinSz    string `json:"minSz"`
	CtVal    string `json:"ctVal"`
	CtMult   string `json:"ctMult"`
	State    string `json:"state"`
	MaxMktSz string `json:"maxMktSz"`
}

type instrumentsResp struct {
	Data []okxInstrument `json:"data"`
}

type tickerResp struct {
	Data []struct {
		InstID string `json:"instId"`
		Last   string `json:"last"`
	} `json:"data"`
}

type balanceResp struct {
	Data []struct {
		TotalEq string `json:"totalEq"`
		Details []struct {
			Ccy string `json:"ccy"`
			Eq  string `json:"eq"`
		} `json:"details"`
	} `json:"data"`
}

// orderAck - ответ на /trade/order и /trade/order-algo.
type orderAck struct {
	Data []struct {
		OrdID  string `json:"ordId"`
		AlgoID string `json:"algoId"`
		SCode  string `json:"sCode"`
		SMsg   string `json:"sMsg"`
	} `json:"data"`
}
