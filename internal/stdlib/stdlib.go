// Package stdlib holds the headers of the native libraries a program can
// load with `#use <name>`. Their functions are implemented by the VM.
package stdlib

import (
	"sort"

	"c0lang/internal/source"
)

// Header returns the header of library name.
func Header(name string) (*source.File, bool) {
	src, ok := headers[name]
	if !ok {
		return nil, false
	}
	return source.NewLibFile("<"+name+">", src), true
}

// Names lists the available libraries in sorted order.
func Names() []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var headers = map[string]string{
	"conio":  conioSrc,
	"string": stringSrc,
	"util":   utilSrc,
	"15411":  fptSrc,
	"dub":    dubSrc,
}

const conioSrc = `
void print(string s);
void println(string s);
void printint(int i);
void printbool(bool b);
void printchar(char c);
void flush();
bool eof();
string readline()
  //@requires !eof();
  ;
`

const stringSrc = `
int string_length(string s);
char string_charat(string s, int idx)
  //@requires 0 <= idx && idx < string_length(s);
  ;
string string_join(string a, string b);
string string_sub(string a, int start, int end)
  //@requires 0 <= start && start <= end && end <= string_length(a);
  ;
bool string_equal(string a, string b);
int string_compare(string a, string b);
string string_fromint(int i);
string string_frombool(bool b);
string string_fromchar(char c)
  //@requires c != '\0';
  ;
string string_tolower(string s);
bool string_terminated(char[] A, int n)
  //@requires 0 <= n && n <= \length(A);
  ;
char[] string_to_chararray(string s);
string string_from_chararray(char[] A)
  //@requires string_terminated(A, \length(A));
  ;
int char_ord(char c);
char char_chr(int n)
  //@requires 0 <= n && n <= 127;
  ;
`

const utilSrc = `
int abs(int x)
  //@requires x > int_min();
  ;
int max(int x, int y);
int min(int x, int y);
int int_max();
int int_min();
int int_size();
string int2hex(int x);
`

const fptSrc = `
typedef int fpt;
fpt fadd(fpt x, fpt y);
fpt fsub(fpt x, fpt y);
fpt fmul(fpt x, fpt y);
fpt fdiv(fpt x, fpt y);
bool fless(fpt x, fpt y);
fpt itof(int n);
int ftoi(fpt x);
void print_fpt(fpt x);
void print_int(int n);
void print_hex(int n);
`

const dubSrc = `
struct dub_header;
typedef struct dub_header* dub;
dub dadd(dub x, dub y);
dub dsub(dub x, dub y);
dub dmul(dub x, dub y);
dub ddiv(dub x, dub y);
bool dless(dub x, dub y);
dub itod(int n);
int dtoi(dub x);
void print_dub(dub x);
`
