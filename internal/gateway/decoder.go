package gateway

import "bytes"

// MaxLineLen 单行上限，超出的行整行丢弃
const MaxLineLen = 256

// LineDecoder 文本帧的流式切分：处理半包与粘包
// 每行一帧，"\r\n" 与 "\n" 均可；空行与 '#' 开头的注释行被跳过
type LineDecoder struct {
	buf      []byte
	skipping bool // 正在丢弃一条超长行，直到下一个换行
}

// NewLineDecoder 创建切分器
func NewLineDecoder() *LineDecoder { return &LineDecoder{} }

// Feed 追加数据，返回完整的行及本次丢弃的超长行数
func (d *LineDecoder) Feed(p []byte) (lines []string, oversized int) {
	d.buf = append(d.buf, p...)
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]
		if d.skipping {
			d.skipping = false
			continue
		}
		if len(line) > MaxLineLen {
			oversized++
			continue
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		lines = append(lines, string(line))
	}
	// 未完成的行已超长：丢弃已缓冲部分，后续字节直到换行都忽略
	if len(d.buf) > MaxLineLen {
		d.buf = d.buf[:0]
		if !d.skipping {
			oversized++
		}
		d.skipping = true
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return lines, oversized
}

// Buffered 尚未成行的字节数
func (d *LineDecoder) Buffered() int { return len(d.buf) }
