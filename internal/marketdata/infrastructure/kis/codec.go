// Package kis 实现交易所网关（KIS）的接入：wire 编解码与 WebSocket 连接管理
package kis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	mddomain "github.com/stockr/trading/internal/marketdata/domain"
)

// wire 帧格式：
//
//	行情帧    "0|H0STASP0|<meta>|<caret 分隔字段>"
//	控制帧    以 '{' 开头的 JSON（订阅应答、PINGPONG 等）
//
// 行情帧字段（按 '^' 切分后 0 起）：
//	[0] 股票代码  [1] 行情时间  [2] 当前价
//	[4] 涨跌符号  [5] 涨跌额    [6] 涨跌率
//	[3..12]  十档卖出报价（递增）   [13..22] 十档买入报价（递减）
//	[23..32] 十档卖出数量          [33..42] 十档买入数量
//	[43] 总卖量   [44] 总买量

// ErrMalformedFrame 帧格式异常（字段数不足、价格非数字等）
var ErrMalformedFrame = errors.New("malformed wire frame")

const (
	// 行情帧字段的最小数量
	minQuoteFields = 45
	// 盘口档位数
	bookDepth = 10

	// TRIDPingPong 心跳通道 ID
	TRIDPingPong = "PINGPONG"

	// 订阅/退订
	trTypeSubscribe   = "1"
	trTypeUnsubscribe = "2"
)

// ControlHeader 控制帧头
type ControlHeader struct {
	TrID  string `json:"tr_id"`
	TrKey string `json:"tr_key,omitempty"`
}

// ControlBody 控制帧体
type ControlBody struct {
	RtCd  string `json:"rt_cd,omitempty"`
	MsgCd string `json:"msg_cd,omitempty"`
	Msg1  string `json:"msg1,omitempty"`
}

// ControlFrame 控制帧（认证应答、订阅应答、心跳）
type ControlFrame struct {
	Header ControlHeader `json:"header"`
	Body   *ControlBody  `json:"body,omitempty"`
}

// IsControlFrame 控制帧以 '{' 开头
func IsControlFrame(raw []byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}

// DecodeControlFrame 解析 JSON 控制帧
func DecodeControlFrame(raw []byte) (*ControlFrame, error) {
	var frame ControlFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return &frame, nil
}

// DecodeQuoteFrame 解析行情帧，返回行情与十档盘口
func DecodeQuoteFrame(raw []byte) (*mddomain.Quote, *mddomain.OrderBook, error) {
	parts := strings.Split(string(raw), "|")
	if len(parts) < 4 {
		return nil, nil, fmt.Errorf("%w: expected 4 pipe-delimited parts, got %d", ErrMalformedFrame, len(parts))
	}

	fields := strings.Split(parts[3], "^")
	if len(fields) < minQuoteFields {
		return nil, nil, fmt.Errorf("%w: expected at least %d fields, got %d", ErrMalformedFrame, minQuoteFields, len(fields))
	}

	price, err := parseDecimal(fields[2])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: current price %q", ErrMalformedFrame, fields[2])
	}

	totalAskVolume, err := parseInt(fields[43])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: total ask volume %q", ErrMalformedFrame, fields[43])
	}
	totalBidVolume, err := parseInt(fields[44])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: total bid volume %q", ErrMalformedFrame, fields[44])
	}

	now := time.Now()

	quote := &mddomain.Quote{
		StockCode: fields[0],
		TickTime:  fields[1],
		Price:     price,
		Sign:      fields[4],
		Volume:    totalBidVolume,
		Timestamp: now,
	}
	// 涨跌额/涨跌率解析失败不丢帧，保持零值
	if change, err := parseDecimal(fields[5]); err == nil {
		quote.Change = change
	}
	if changeRate, err := parseDecimal(fields[6]); err == nil {
		quote.ChangeRate = changeRate
	}

	book := &mddomain.OrderBook{
		StockCode:      fields[0],
		Asks:           make([]mddomain.OrderBookLevel, 0, bookDepth),
		Bids:           make([]mddomain.OrderBookLevel, 0, bookDepth),
		TotalAskVolume: totalAskVolume,
		TotalBidVolume: totalBidVolume,
		Timestamp:      now,
	}

	for i := 0; i < bookDepth; i++ {
		askPrice, err := parseDecimal(fields[3+i])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: ask price %q", ErrMalformedFrame, fields[3+i])
		}
		askQty, err := parseInt(fields[23+i])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: ask quantity %q", ErrMalformedFrame, fields[23+i])
		}
		book.Asks = append(book.Asks, mddomain.OrderBookLevel{Price: askPrice, Quantity: askQty})

		bidPrice, err := parseDecimal(fields[13+i])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: bid price %q", ErrMalformedFrame, fields[13+i])
		}
		bidQty, err := parseInt(fields[33+i])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: bid quantity %q", ErrMalformedFrame, fields[33+i])
		}
		book.Bids = append(book.Bids, mddomain.OrderBookLevel{Price: bidPrice, Quantity: bidQty})
	}

	return quote, book, nil
}

// subscribeRequest 订阅/退订控制消息
type subscribeRequest struct {
	Header subscribeHeader `json:"header"`
	Body   subscribeBody   `json:"body"`
}

type subscribeHeader struct {
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
	CustType  string `json:"custtype"`
	TrType    string `json:"tr_type"`
	TrID      string `json:"tr_id"`
}

type subscribeBody struct {
	Input subscribeInput `json:"input"`
}

type subscribeInput struct {
	TrID  string `json:"tr_id"`
	TrKey string `json:"tr_key"`
}

// EncodeSubscribe 构造订阅控制帧
func EncodeSubscribe(cfg Config, stockCode string) ([]byte, error) {
	return encodeSubscription(cfg, trTypeSubscribe, stockCode)
}

// EncodeUnsubscribe 构造退订控制帧
func EncodeUnsubscribe(cfg Config, stockCode string) ([]byte, error) {
	return encodeSubscription(cfg, trTypeUnsubscribe, stockCode)
}

func encodeSubscription(cfg Config, trType, stockCode string) ([]byte, error) {
	req := subscribeRequest{
		Header: subscribeHeader{
			AppKey:    cfg.AppKey,
			AppSecret: cfg.AppSecret,
			CustType:  cfg.CustType,
			TrType:    trType,
			TrID:      cfg.OrderBookTRID,
		},
		Body: subscribeBody{
			Input: subscribeInput{
				TrID:  cfg.OrderBookTRID,
				TrKey: stockCode,
			},
		},
	}
	return json.Marshal(req)
}

// EncodePing 构造心跳帧
func EncodePing() ([]byte, error) {
	return json.Marshal(ControlFrame{Header: ControlHeader{TrID: TRIDPingPong}})
}

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
