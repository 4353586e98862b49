package protocol

type Command string

const (
	CmdHello       Command = "hello"
	CmdHelloOK     Command = "hello_ok"
	CmdHelloKO     Command = "hello_ko"
	CmdGet         Command = "get"
	CmdAnswer      Command = "answer"
	CmdGetResp     Command = "get_resp"
	CmdAnswerResp  Command = "answer_resp"
	CmdPut         Command = "put"
	CmdAck         Command = "ack"
	CmdUpdateTable Command = "update_table"
	CmdGetStat     Command = "get_stat"
	CmdStats       Command = "stats"
	CmdPrint       Command = "print"
	CmdExit        Command = "exit"
)

func (c Command) String() string {
	return string(c)
}

// Message is one of the variants below. The set is closed.
type Message interface {
	Command() Command
	isMessage()
}

// Hello asks the ring to make room for the joiner.
type Hello struct {
	Address Address `json:"address"`
}

// HelloOK accepts a join. Data is the slice of the responder's shard now owned by the joiner,
// and AddressPrevious is the predecessor the joiner should adopt.
type HelloOK struct {
	ID              uint64     `json:"id"`
	AddressResp     Address    `json:"address_resp"`
	Data            []KeyValue `json:"data"`
	AddressPrevious Address    `json:"address_previous"`
}

// HelloKO rejects a join because the id is taken.
type HelloKO struct {
	ID uint64 `json:"id"`
}

// Get looks up a key. Address receives the Answer.
type Get struct {
	Address Address `json:"address"`
	Key     uint64  `json:"key"`
}

type Answer struct {
	Key       uint64  `json:"key"`
	Value     float64 `json:"value"`
	ValExists bool    `json:"val_exists"`
}

// GetResp asks who owns a key, without reading it. Address receives the AnswerResp.
type GetResp struct {
	Address Address `json:"address"`
	Key     uint64  `json:"key"`
}

type AnswerResp struct {
	Key     uint64  `json:"key"`
	Address Address `json:"address"`
}

// Put writes a key. Address receives an Ack carrying ID.
type Put struct {
	Address Address `json:"address"`
	Key     uint64  `json:"key"`
	Value   float64 `json:"value"`
	ID      uint64  `json:"id"`
}

type Ack struct {
	ID uint64 `json:"id"`
}

// UpdateTable announces Address as a new ring member so fingers can be corrected.
// IDLowerKey and Amount bound how far the announcement travels; -1 means not yet set.
type UpdateTable struct {
	Address    Address `json:"address"`
	IDLowerKey int64   `json:"id_lower_key"`
	Amount     int64   `json:"amount"`
}

// Stats accumulates counters around the ring. Address is the origin of the walk.
// Relay distinguishes a hop of the walk ("stats") from the request that starts it ("get_stat").
type Stats struct {
	Address Address `json:"address"`
	GetAmt  uint64  `json:"get_amt"`
	PutAmt  uint64  `json:"put_amt"`
	MgmtAmt uint64  `json:"mgmt_amt"`

	Relay bool `json:"-"`
}

// Print asks every node, walking backward from the receiver, to report its counters.
type Print struct {
	Address Address `json:"address"`
}

type Exit struct{}

type KeyValue struct {
	Key   uint64  `json:"key"`
	Value float64 `json:"value"`
}

func (Hello) Command() Command       { return CmdHello }
func (HelloOK) Command() Command     { return CmdHelloOK }
func (HelloKO) Command() Command     { return CmdHelloKO }
func (Get) Command() Command         { return CmdGet }
func (Answer) Command() Command      { return CmdAnswer }
func (GetResp) Command() Command     { return CmdGetResp }
func (AnswerResp) Command() Command  { return CmdAnswerResp }
func (Put) Command() Command         { return CmdPut }
func (Ack) Command() Command         { return CmdAck }
func (UpdateTable) Command() Command { return CmdUpdateTable }
func (Print) Command() Command       { return CmdPrint }
func (Exit) Command() Command        { return CmdExit }

func (s Stats) Command() Command {
	if s.Relay {
		return CmdStats
	}
	return CmdGetStat
}

func (Hello) isMessage()       {}
func (HelloOK) isMessage()     {}
func (HelloKO) isMessage()     {}
func (Get) isMessage()         {}
func (Answer) isMessage()      {}
func (GetResp) isMessage()     {}
func (AnswerResp) isMessage()  {}
func (Put) isMessage()         {}
func (Ack) isMessage()         {}
func (UpdateTable) isMessage() {}
func (Stats) isMessage()       {}
func (Print) isMessage()       {}
func (Exit) isMessage()        {}
