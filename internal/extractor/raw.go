package extractor

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/cardlens/statement-converter/internal/models"
)

// extractRaw is the fallback extractor that works directly on the PDF byte
// stream, for files the structured library cannot open or decodes into
// garbage. It finds content streams with text operators (Tj, TJ), decodes
// literal and hex strings, and applies ToUnicode CMap tables so CIDFont and
// Type0 encodings come out as readable text.
//
// Page boundaries are not recoverable at this level, so the result is a
// single page holding everything that could be decoded.
func extractRaw(data []byte) []models.ExtractedPage {
	streams := findStreams(data)
	if len(streams) == 0 {
		return nil
	}

	cm := collectCMaps(data, streams)

	var blocks []string
	for _, stream := range streams {
		text := decodeContentStream(inflate(stream), cm)
		if text != "" {
			blocks = append(blocks, text)
		}
	}
	if len(blocks) == 0 {
		return nil
	}
	return []models.ExtractedPage{{Index: 0, Text: strings.Join(blocks, "\n")}}
}

// findStreams locates every stream...endstream block in the document.
func findStreams(data []byte) [][]byte {
	var streams [][]byte
	start := []byte("stream")
	end := []byte("endstream")

	offset := 0
	for offset < len(data) {
		idx := bytes.Index(data[offset:], start)
		if idx < 0 {
			break
		}
		from := offset + idx + len(start)
		if from < len(data) && data[from] == '\r' {
			from++
		}
		if from < len(data) && data[from] == '\n' {
			from++
		}
		endIdx := bytes.Index(data[from:], end)
		if endIdx < 0 {
			break
		}
		if endIdx > 0 {
			streams = append(streams, data[from:from+endIdx])
		}
		offset = from + endIdx + len(end)
	}
	return streams
}

// inflate zlib-decompresses a stream, returning the input unchanged when it
// is not compressed.
func inflate(data []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return data
	}
	return out
}

// Text operator patterns for content-stream decoding.
var (
	hexTjRe    = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*Tj`)
	litTjRe    = regexp.MustCompile(`\(([^)]*)\)\s*Tj`)
	tjArrayRe  = regexp.MustCompile(`\[([^\]]*)\]\s*TJ`)
	hexTokenRe = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
	litTokenRe = regexp.MustCompile(`\(([^)]*)\)`)
	tickRe     = regexp.MustCompile(`\(([^)]*)\)\s*'`)
	tdRe       = regexp.MustCompile(`([\d.\-]+)\s+([\d.\-]+)\s+T[dD]`)
)

// decodeContentStream walks one content stream's BT...ET text blocks and
// reconstructs lines from positioning operators.
func decodeContentStream(data []byte, cm *cmap) string {
	content := string(data)
	if !strings.Contains(content, "Tj") && !strings.Contains(content, "TJ") &&
		!strings.Contains(content, "BT") {
		return ""
	}

	var lines []string
	for _, block := range textBlocks(content) {
		lines = append(lines, decodeTextBlock(block, cm)...)
	}

	if len(lines) == 0 {
		// No BT/ET structure; pull whatever strings exist, in stream order.
		var parts []string
		for _, m := range hexTjRe.FindAllStringSubmatch(content, -1) {
			if s := decodeHex(m[1], cm); s != "" {
				parts = append(parts, s)
			}
		}
		for _, m := range litTjRe.FindAllStringSubmatch(content, -1) {
			if s := decodeLiteral(m[1], cm); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.TrimSpace(strings.Join(parts, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// textBlocks slices out the BT...ET spans of a content stream.
func textBlocks(content string) []string {
	var blocks []string
	rest := content
	for {
		bt := strings.Index(rest, "BT")
		if bt < 0 {
			break
		}
		et := strings.Index(rest[bt:], "ET")
		if et < 0 {
			break
		}
		blocks = append(blocks, rest[bt:bt+et+2])
		rest = rest[bt+et+2:]
	}
	return blocks
}

// decodeTextBlock extracts lines from one BT...ET block. Td/TD and T*
// operators mark line breaks.
func decodeTextBlock(block string, cm *cmap) []string {
	var lines []string
	var line strings.Builder

	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	for _, op := range strings.Split(block, "\n") {
		op = strings.TrimSpace(op)
		if tdRe.MatchString(op) || op == "T*" {
			flush()
		}
		for _, m := range hexTjRe.FindAllStringSubmatch(op, -1) {
			line.WriteString(decodeHex(m[1], cm))
		}
		for _, m := range litTjRe.FindAllStringSubmatch(op, -1) {
			line.WriteString(decodeLiteral(m[1], cm))
		}
		for _, m := range tjArrayRe.FindAllStringSubmatch(op, -1) {
			line.WriteString(decodeTJArray(m[1], cm))
		}
		for _, m := range tickRe.FindAllStringSubmatch(op, -1) {
			flush()
			line.WriteString(decodeLiteral(m[1], cm))
		}
	}
	flush()
	return lines
}

// decodeTJArray decodes a TJ array's mix of hex and literal strings in
// positional order, ignoring the interleaved kerning numbers.
func decodeTJArray(array string, cm *cmap) string {
	type piece struct {
		pos   int
		isHex bool
		val   string
	}
	var pieces []piece
	for _, idx := range hexTokenRe.FindAllStringSubmatchIndex(array, -1) {
		pieces = append(pieces, piece{pos: idx[0], isHex: true, val: array[idx[2]:idx[3]]})
	}
	for _, idx := range litTokenRe.FindAllStringSubmatchIndex(array, -1) {
		pieces = append(pieces, piece{pos: idx[0], val: array[idx[2]:idx[3]]})
	}
	for i := 1; i < len(pieces); i++ {
		for j := i; j > 0 && pieces[j].pos < pieces[j-1].pos; j-- {
			pieces[j], pieces[j-1] = pieces[j-1], pieces[j]
		}
	}

	var out strings.Builder
	for _, p := range pieces {
		if p.isHex {
			out.WriteString(decodeHex(p.val, cm))
		} else {
			out.WriteString(decodeLiteral(p.val, cm))
		}
	}
	return out.String()
}

// decodeHex decodes a hex-encoded PDF string, trying the CMap first, then
// UTF-16BE, then plain ASCII.
func decodeHex(hexStr string, cm *cmap) string {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return ""
	}
	if s := cm.decode(raw); s != "" {
		return s
	}
	if len(raw) >= 2 && len(raw)%2 == 0 {
		var out strings.Builder
		for i := 0; i+1 < len(raw); i += 2 {
			cp := rune(raw[i])<<8 | rune(raw[i+1])
			if unicode.IsPrint(cp) || cp == ' ' {
				out.WriteRune(cp)
			}
		}
		if out.Len() > 0 {
			return out.String()
		}
	}
	return stripUnprintable(string(raw))
}

// decodeLiteral decodes a literal PDF string, applying escape sequences and
// the CMap when its output looks printable.
func decodeLiteral(s string, cm *cmap) string {
	decoded := unescapePDF(s)
	if out := cm.decode([]byte(decoded)); out != "" && mostlyPrintable(out) {
		return out
	}
	return stripUnprintable(decoded)
}

// unescapePDF handles the \n \r \t \( \) \\ and octal escapes of PDF
// literal strings.
func unescapePDF(s string) string {
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			buf.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			buf.WriteByte('\n')
		case 'r':
			buf.WriteByte('\r')
		case 't':
			buf.WriteByte('\t')
		case 'b':
			buf.WriteByte('\b')
		case 'f':
			buf.WriteByte('\f')
		case '(', ')', '\\':
			buf.WriteByte(s[i])
		default:
			if s[i] >= '0' && s[i] <= '7' {
				val := int(s[i] - '0')
				for j := 1; j < 3 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(s[i]-'0')
				}
				if val < 256 {
					buf.WriteByte(byte(val))
				}
			} else {
				buf.WriteByte(s[i])
			}
		}
	}
	return buf.String()
}

func stripUnprintable(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		return -1
	}, s))
}

func mostlyPrintable(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 {
		return false
	}
	printable := 0
	for _, r := range runes {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' || r == ' ' {
			printable++
		}
	}
	return float64(printable)/float64(len(runes)) > 0.5
}

// --- ToUnicode CMap handling ---

// cmap maps hex-encoded character codes to Unicode strings, built from the
// document's ToUnicode streams. A nil cmap decodes nothing.
type cmap struct {
	codes map[string]string
}

var (
	bfCharRe  = regexp.MustCompile(`(?s)beginbfchar\s*(.*?)\s*endbfchar`)
	bfRangeRe = regexp.MustCompile(`(?s)beginbfrange\s*(.*?)\s*endbfrange`)
)

// collectCMaps parses and merges every ToUnicode CMap in the document.
func collectCMaps(data []byte, streams [][]byte) *cmap {
	merged := &cmap{codes: map[string]string{}}
	for _, stream := range streams {
		content := string(inflate(stream))
		if !strings.Contains(content, "beginbfchar") && !strings.Contains(content, "beginbfrange") {
			continue
		}
		parseCMap(content, merged.codes)
	}
	if len(merged.codes) == 0 {
		return nil
	}
	return merged
}

// parseCMap reads bfchar and bfrange sections into dst.
func parseCMap(content string, dst map[string]string) {
	// bfchar: <srcCode> <unicode> pairs.
	for _, block := range bfCharRe.FindAllStringSubmatch(content, -1) {
		tokens := hexTokenRe.FindAllStringSubmatch(block[1], -1)
		for i := 0; i+1 < len(tokens); i += 2 {
			if uni := hexToUnicode(tokens[i+1][1]); uni != "" {
				dst[strings.ToUpper(tokens[i][1])] = uni
			}
		}
	}

	// bfrange: <start> <end> <dst>, or <start> <end> [<u1> <u2> ...].
	for _, block := range bfRangeRe.FindAllStringSubmatch(content, -1) {
		for _, line := range strings.Split(block[1], "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if bracket := strings.Index(line, "["); bracket >= 0 {
				parseRangeArray(line[:bracket], line[bracket:], dst)
				continue
			}
			tokens := hexTokenRe.FindAllStringSubmatch(line, -1)
			if len(tokens) < 3 {
				continue
			}
			startHex, endHex, dstHex := tokens[0][1], tokens[1][1], tokens[2][1]
			start, end, base := hexToInt(startHex), hexToInt(endHex), hexToInt(dstHex)
			if start < 0 || end < start || base < 0 || end-start > 0xFFFF {
				continue
			}
			for code := start; code <= end; code++ {
				uni := hexToUnicode(intToHex(base+(code-start), len(dstHex)))
				if uni != "" {
					dst[intToHex(code, len(startHex))] = uni
				}
			}
		}
	}
}

func parseRangeArray(before, array string, dst map[string]string) {
	tokens := hexTokenRe.FindAllStringSubmatch(before, -1)
	if len(tokens) < 2 {
		return
	}
	start := hexToInt(tokens[0][1])
	width := len(tokens[0][1])
	for i, ut := range hexTokenRe.FindAllStringSubmatch(array, -1) {
		if uni := hexToUnicode(ut[1]); uni != "" {
			dst[intToHex(start+i, width)] = uni
		}
	}
}

// decode translates raw string bytes through the CMap. Code width (1 or 2
// bytes) is inferred from the mapping keys.
func (cm *cmap) decode(raw []byte) string {
	if cm == nil || len(cm.codes) == 0 {
		return ""
	}
	width := 1
	for k := range cm.codes {
		if w := len(k) / 2; w > 0 {
			width = w
		}
		break
	}

	var out strings.Builder
	for i := 0; i <= len(raw)-width; i += width {
		chunk := raw[i : i+width]
		key := strings.ToUpper(hex.EncodeToString(chunk))
		if uni, ok := cm.codes[key]; ok {
			out.WriteString(uni)
			continue
		}
		if width > 1 {
			// Mixed-width font: retry this position as a single byte.
			key1 := strings.ToUpper(hex.EncodeToString(chunk[:1]))
			if uni, ok := cm.codes[key1]; ok {
				out.WriteString(uni)
				i -= width - 1
				continue
			}
		}
		if width == 1 && chunk[0] >= 32 && chunk[0] < 127 {
			out.WriteByte(chunk[0])
		}
	}
	return out.String()
}

func hexToInt(h string) int {
	val := 0
	for _, c := range strings.ToUpper(h) {
		val <<= 4
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'A' && c <= 'F':
			val += int(c-'A') + 10
		default:
			return -1
		}
	}
	return val
}

func intToHex(val, width int) string {
	h := strings.ToUpper(hex.EncodeToString([]byte{byte(val >> 8), byte(val)}))
	if len(h) > width {
		h = h[len(h)-width:]
	}
	for len(h) < width {
		h = "0" + h
	}
	return h
}

// hexToUnicode converts a hex-encoded UTF-16BE value, surrogate pairs
// included, to a string.
func hexToUnicode(h string) string {
	if len(h)%2 != 0 {
		h = "0" + h
	}
	data, err := hex.DecodeString(h)
	if err != nil {
		return ""
	}
	switch len(data) {
	case 2:
		return string(rune(uint16(data[0])<<8 | uint16(data[1])))
	case 4:
		hi := rune(uint16(data[0])<<8 | uint16(data[1]))
		lo := rune(uint16(data[2])<<8 | uint16(data[3]))
		if utf16.IsSurrogate(hi) && utf16.IsSurrogate(lo) {
			return string(utf16.DecodeRune(hi, lo))
		}
		return string(hi) + string(lo)
	}
	var out strings.Builder
	for i := 0; i+1 < len(data); i += 2 {
		out.WriteRune(rune(uint16(data[i])<<8 | uint16(data[i+1])))
	}
	return out.String()
}
