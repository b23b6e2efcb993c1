package errs

const (
	ErrCode_OK       = 0
	ErrCode_Unknown  = 1
	ErrCode_Config   = 2 // 构造参数或配置非法
	ErrCode_Capacity = 3 // 没有空闲槽位
	ErrCode_Range    = 4 // 时长超出可表示范围
	ErrCode_NotFound = 5 // 定时器不存在或句柄已失效
	ErrCode_Empty    = 6 // 没有待触发的定时器
	ErrCode_Protocol = 7 // 报文格式错误
)

var (
	Unknown  = register(ErrCode_Unknown, "UNKNOWN")
	Config   = register(ErrCode_Config, "INVALID_CONFIG")
	Capacity = register(ErrCode_Capacity, "CAPACITY_EXHAUSTED")
	Range    = register(ErrCode_Range, "DURATION_OUT_OF_RANGE")
	NotFound = register(ErrCode_NotFound, "NOT_FOUND")
	Empty    = register(ErrCode_Empty, "EMPTY")
	Protocol = register(ErrCode_Protocol, "PROTOCOL")
)
