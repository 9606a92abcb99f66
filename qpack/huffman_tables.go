package qpack

// Canonical Huffman code table for QPACK/HPACK (RFC 7541 Appendix B),
// 257 symbols: bytes 0-255 plus the end-of-string symbol 256.
//
// Values transcribed from the reference encode_table in
// original_source/src/lsqpack.c, which in turn is the canonical RFC
// table. HuffCodec builds its encode lookup and its table-driven decode
// transition table (spec.md §4.2) from this at package init.

type huffCode struct {
	code  uint32
	nbits uint8
}

const huffmanEOS = 256

var huffmanCodes = [257]huffCode{
	{code: 0x1ff8, nbits: 13}, // 0
	{code: 0x7fffd8, nbits: 23}, // 1
	{code: 0xfffffe2, nbits: 28}, // 2
	{code: 0xfffffe3, nbits: 28}, // 3
	{code: 0xfffffe4, nbits: 28}, // 4
	{code: 0xfffffe5, nbits: 28}, // 5
	{code: 0xfffffe6, nbits: 28}, // 6
	{code: 0xfffffe7, nbits: 28}, // 7
	{code: 0xfffffe8, nbits: 28}, // 8
	{code: 0xffffea, nbits: 24}, // 9
	{code: 0x3ffffffc, nbits: 30}, // 10
	{code: 0xfffffe9, nbits: 28}, // 11
	{code: 0xfffffea, nbits: 28}, // 12
	{code: 0x3ffffffd, nbits: 30}, // 13
	{code: 0xfffffeb, nbits: 28}, // 14
	{code: 0xfffffec, nbits: 28}, // 15
	{code: 0xfffffed, nbits: 28}, // 16
	{code: 0xfffffee, nbits: 28}, // 17
	{code: 0xfffffef, nbits: 28}, // 18
	{code: 0xffffff0, nbits: 28}, // 19
	{code: 0xffffff1, nbits: 28}, // 20
	{code: 0xffffff2, nbits: 28}, // 21
	{code: 0x3ffffffe, nbits: 30}, // 22
	{code: 0xffffff3, nbits: 28}, // 23
	{code: 0xffffff4, nbits: 28}, // 24
	{code: 0xffffff5, nbits: 28}, // 25
	{code: 0xffffff6, nbits: 28}, // 26
	{code: 0xffffff7, nbits: 28}, // 27
	{code: 0xffffff8, nbits: 28}, // 28
	{code: 0xffffff9, nbits: 28}, // 29
	{code: 0xffffffa, nbits: 28}, // 30
	{code: 0xffffffb, nbits: 28}, // 31
	{code: 0x14, nbits: 6}, // 32
	{code: 0x3f8, nbits: 10}, // 33
	{code: 0x3f9, nbits: 10}, // 34
	{code: 0xffa, nbits: 12}, // 35
	{code: 0x1ff9, nbits: 13}, // 36
	{code: 0x15, nbits: 6}, // 37
	{code: 0xf8, nbits: 8}, // 38
	{code: 0x7fa, nbits: 11}, // 39
	{code: 0x3fa, nbits: 10}, // 40
	{code: 0x3fb, nbits: 10}, // 41
	{code: 0xf9, nbits: 8}, // 42
	{code: 0x7fb, nbits: 11}, // 43
	{code: 0xfa, nbits: 8}, // 44
	{code: 0x16, nbits: 6}, // 45
	{code: 0x17, nbits: 6}, // 46
	{code: 0x18, nbits: 6}, // 47
	{code: 0x0, nbits: 5}, // 48
	{code: 0x1, nbits: 5}, // 49
	{code: 0x2, nbits: 5}, // 50
	{code: 0x19, nbits: 6}, // 51
	{code: 0x1a, nbits: 6}, // 52
	{code: 0x1b, nbits: 6}, // 53
	{code: 0x1c, nbits: 6}, // 54
	{code: 0x1d, nbits: 6}, // 55
	{code: 0x1e, nbits: 6}, // 56
	{code: 0x1f, nbits: 6}, // 57
	{code: 0x5c, nbits: 7}, // 58
	{code: 0xfb, nbits: 8}, // 59
	{code: 0x7ffc, nbits: 15}, // 60
	{code: 0x20, nbits: 6}, // 61
	{code: 0xffb, nbits: 12}, // 62
	{code: 0x3fc, nbits: 10}, // 63
	{code: 0x1ffa, nbits: 13}, // 64
	{code: 0x21, nbits: 6}, // 65
	{code: 0x5d, nbits: 7}, // 66
	{code: 0x5e, nbits: 7}, // 67
	{code: 0x5f, nbits: 7}, // 68
	{code: 0x60, nbits: 7}, // 69
	{code: 0x61, nbits: 7}, // 70
	{code: 0x62, nbits: 7}, // 71
	{code: 0x63, nbits: 7}, // 72
	{code: 0x64, nbits: 7}, // 73
	{code: 0x65, nbits: 7}, // 74
	{code: 0x66, nbits: 7}, // 75
	{code: 0x67, nbits: 7}, // 76
	{code: 0x68, nbits: 7}, // 77
	{code: 0x69, nbits: 7}, // 78
	{code: 0x6a, nbits: 7}, // 79
	{code: 0x6b, nbits: 7}, // 80
	{code: 0x6c, nbits: 7}, // 81
	{code: 0x6d, nbits: 7}, // 82
	{code: 0x6e, nbits: 7}, // 83
	{code: 0x6f, nbits: 7}, // 84
	{code: 0x70, nbits: 7}, // 85
	{code: 0x71, nbits: 7}, // 86
	{code: 0x72, nbits: 7}, // 87
	{code: 0xfc, nbits: 8}, // 88
	{code: 0x73, nbits: 7}, // 89
	{code: 0xfd, nbits: 8}, // 90
	{code: 0x1ffb, nbits: 13}, // 91
	{code: 0x7fff0, nbits: 19}, // 92
	{code: 0x1ffc, nbits: 13}, // 93
	{code: 0x3ffc, nbits: 14}, // 94
	{code: 0x22, nbits: 6}, // 95
	{code: 0x7ffd, nbits: 15}, // 96
	{code: 0x3, nbits: 5}, // 97
	{code: 0x23, nbits: 6}, // 98
	{code: 0x4, nbits: 5}, // 99
	{code: 0x24, nbits: 6}, // 100
	{code: 0x5, nbits: 5}, // 101
	{code: 0x25, nbits: 6}, // 102
	{code: 0x26, nbits: 6}, // 103
	{code: 0x27, nbits: 6}, // 104
	{code: 0x6, nbits: 5}, // 105
	{code: 0x74, nbits: 7}, // 106
	{code: 0x75, nbits: 7}, // 107
	{code: 0x28, nbits: 6}, // 108
	{code: 0x29, nbits: 6}, // 109
	{code: 0x2a, nbits: 6}, // 110
	{code: 0x7, nbits: 5}, // 111
	{code: 0x2b, nbits: 6}, // 112
	{code: 0x76, nbits: 7}, // 113
	{code: 0x2c, nbits: 6}, // 114
	{code: 0x8, nbits: 5}, // 115
	{code: 0x9, nbits: 5}, // 116
	{code: 0x2d, nbits: 6}, // 117
	{code: 0x77, nbits: 7}, // 118
	{code: 0x78, nbits: 7}, // 119
	{code: 0x79, nbits: 7}, // 120
	{code: 0x7a, nbits: 7}, // 121
	{code: 0x7b, nbits: 7}, // 122
	{code: 0x7ffe, nbits: 15}, // 123
	{code: 0x7fc, nbits: 11}, // 124
	{code: 0x3ffd, nbits: 14}, // 125
	{code: 0x1ffd, nbits: 13}, // 126
	{code: 0xffffffc, nbits: 28}, // 127
	{code: 0xfffe6, nbits: 20}, // 128
	{code: 0x3fffd2, nbits: 22}, // 129
	{code: 0xfffe7, nbits: 20}, // 130
	{code: 0xfffe8, nbits: 20}, // 131
	{code: 0x3fffd3, nbits: 22}, // 132
	{code: 0x3fffd4, nbits: 22}, // 133
	{code: 0x3fffd5, nbits: 22}, // 134
	{code: 0x7fffd9, nbits: 23}, // 135
	{code: 0x3fffd6, nbits: 22}, // 136
	{code: 0x7fffda, nbits: 23}, // 137
	{code: 0x7fffdb, nbits: 23}, // 138
	{code: 0x7fffdc, nbits: 23}, // 139
	{code: 0x7fffdd, nbits: 23}, // 140
	{code: 0x7fffde, nbits: 23}, // 141
	{code: 0xffffeb, nbits: 24}, // 142
	{code: 0x7fffdf, nbits: 23}, // 143
	{code: 0xffffec, nbits: 24}, // 144
	{code: 0xffffed, nbits: 24}, // 145
	{code: 0x3fffd7, nbits: 22}, // 146
	{code: 0x7fffe0, nbits: 23}, // 147
	{code: 0xffffee, nbits: 24}, // 148
	{code: 0x7fffe1, nbits: 23}, // 149
	{code: 0x7fffe2, nbits: 23}, // 150
	{code: 0x7fffe3, nbits: 23}, // 151
	{code: 0x7fffe4, nbits: 23}, // 152
	{code: 0x1fffdc, nbits: 21}, // 153
	{code: 0x3fffd8, nbits: 22}, // 154
	{code: 0x7fffe5, nbits: 23}, // 155
	{code: 0x3fffd9, nbits: 22}, // 156
	{code: 0x7fffe6, nbits: 23}, // 157
	{code: 0x7fffe7, nbits: 23}, // 158
	{code: 0xffffef, nbits: 24}, // 159
	{code: 0x3fffda, nbits: 22}, // 160
	{code: 0x1fffdd, nbits: 21}, // 161
	{code: 0xfffe9, nbits: 20}, // 162
	{code: 0x3fffdb, nbits: 22}, // 163
	{code: 0x3fffdc, nbits: 22}, // 164
	{code: 0x7fffe8, nbits: 23}, // 165
	{code: 0x7fffe9, nbits: 23}, // 166
	{code: 0x1fffde, nbits: 21}, // 167
	{code: 0x7fffea, nbits: 23}, // 168
	{code: 0x3fffdd, nbits: 22}, // 169
	{code: 0x3fffde, nbits: 22}, // 170
	{code: 0xfffff0, nbits: 24}, // 171
	{code: 0x1fffdf, nbits: 21}, // 172
	{code: 0x3fffdf, nbits: 22}, // 173
	{code: 0x7fffeb, nbits: 23}, // 174
	{code: 0x7fffec, nbits: 23}, // 175
	{code: 0x1fffe0, nbits: 21}, // 176
	{code: 0x1fffe1, nbits: 21}, // 177
	{code: 0x3fffe0, nbits: 22}, // 178
	{code: 0x1fffe2, nbits: 21}, // 179
	{code: 0x7fffed, nbits: 23}, // 180
	{code: 0x3fffe1, nbits: 22}, // 181
	{code: 0x7fffee, nbits: 23}, // 182
	{code: 0x7fffef, nbits: 23}, // 183
	{code: 0xfffea, nbits: 20}, // 184
	{code: 0x3fffe2, nbits: 22}, // 185
	{code: 0x3fffe3, nbits: 22}, // 186
	{code: 0x3fffe4, nbits: 22}, // 187
	{code: 0x7ffff0, nbits: 23}, // 188
	{code: 0x3fffe5, nbits: 22}, // 189
	{code: 0x3fffe6, nbits: 22}, // 190
	{code: 0x7ffff1, nbits: 23}, // 191
	{code: 0x3ffffe0, nbits: 26}, // 192
	{code: 0x3ffffe1, nbits: 26}, // 193
	{code: 0xfffeb, nbits: 20}, // 194
	{code: 0x7fff1, nbits: 19}, // 195
	{code: 0x3fffe7, nbits: 22}, // 196
	{code: 0x7ffff2, nbits: 23}, // 197
	{code: 0x3fffe8, nbits: 22}, // 198
	{code: 0x1ffffec, nbits: 25}, // 199
	{code: 0x3ffffe2, nbits: 26}, // 200
	{code: 0x3ffffe3, nbits: 26}, // 201
	{code: 0x3ffffe4, nbits: 26}, // 202
	{code: 0x7ffffde, nbits: 27}, // 203
	{code: 0x7ffffdf, nbits: 27}, // 204
	{code: 0x3ffffe5, nbits: 26}, // 205
	{code: 0xfffff1, nbits: 24}, // 206
	{code: 0x1ffffed, nbits: 25}, // 207
	{code: 0x7fff2, nbits: 19}, // 208
	{code: 0x1fffe3, nbits: 21}, // 209
	{code: 0x3ffffe6, nbits: 26}, // 210
	{code: 0x7ffffe0, nbits: 27}, // 211
	{code: 0x7ffffe1, nbits: 27}, // 212
	{code: 0x3ffffe7, nbits: 26}, // 213
	{code: 0x7ffffe2, nbits: 27}, // 214
	{code: 0xfffff2, nbits: 24}, // 215
	{code: 0x1fffe4, nbits: 21}, // 216
	{code: 0x1fffe5, nbits: 21}, // 217
	{code: 0x3ffffe8, nbits: 26}, // 218
	{code: 0x3ffffe9, nbits: 26}, // 219
	{code: 0xffffffd, nbits: 28}, // 220
	{code: 0x7ffffe3, nbits: 27}, // 221
	{code: 0x7ffffe4, nbits: 27}, // 222
	{code: 0x7ffffe5, nbits: 27}, // 223
	{code: 0xfffec, nbits: 20}, // 224
	{code: 0xfffff3, nbits: 24}, // 225
	{code: 0xfffed, nbits: 20}, // 226
	{code: 0x1fffe6, nbits: 21}, // 227
	{code: 0x3fffe9, nbits: 22}, // 228
	{code: 0x1fffe7, nbits: 21}, // 229
	{code: 0x1fffe8, nbits: 21}, // 230
	{code: 0x7ffff3, nbits: 23}, // 231
	{code: 0x3fffea, nbits: 22}, // 232
	{code: 0x3fffeb, nbits: 22}, // 233
	{code: 0x1ffffee, nbits: 25}, // 234
	{code: 0x1ffffef, nbits: 25}, // 235
	{code: 0xfffff4, nbits: 24}, // 236
	{code: 0xfffff5, nbits: 24}, // 237
	{code: 0x3ffffea, nbits: 26}, // 238
	{code: 0x7ffff4, nbits: 23}, // 239
	{code: 0x3ffffeb, nbits: 26}, // 240
	{code: 0x7ffffe6, nbits: 27}, // 241
	{code: 0x3ffffec, nbits: 26}, // 242
	{code: 0x3ffffed, nbits: 26}, // 243
	{code: 0x7ffffe7, nbits: 27}, // 244
	{code: 0x7ffffe8, nbits: 27}, // 245
	{code: 0x7ffffe9, nbits: 27}, // 246
	{code: 0x7ffffea, nbits: 27}, // 247
	{code: 0x7ffffeb, nbits: 27}, // 248
	{code: 0xffffffe, nbits: 28}, // 249
	{code: 0x7ffffec, nbits: 27}, // 250
	{code: 0x7ffffed, nbits: 27}, // 251
	{code: 0x7ffffee, nbits: 27}, // 252
	{code: 0x7ffffef, nbits: 27}, // 253
	{code: 0x7fffff0, nbits: 27}, // 254
	{code: 0x3ffffee, nbits: 26}, // 255
	{code: 0x3fffffff, nbits: 30}, // 256
}

