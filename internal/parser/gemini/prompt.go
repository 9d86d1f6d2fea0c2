package gemini

import "fmt"

// buildPrompt wraps the user text in the classification instruction. The
// few-shot examples pin down the amount grammar (k/rb thousands, jt
// millions) and the implicit pairing of withdrawals and topups.
func buildPrompt(text string) string {
	return fmt.Sprintf(`Kamu adalah parser transaksi keuangan. Analisis pesan berikut dan balas HANYA dengan JSON mentah, tanpa markdown, tanpa penjelasan.

Skema:
{
  "tipe": "pemasukan" | "pengeluaran" | "transfer",
  "nominal": <angka bulat dalam rupiah>,
  "akun": "<akun untuk pemasukan/pengeluaran, default cash>",
  "akun_asal": "<akun sumber, hanya untuk transfer>",
  "akun_tujuan": "<akun tujuan, hanya untuk transfer>",
  "kategori": "makanan" | "transportasi" | "belanja" | "hiburan" | "gaji" | "transfer" | "lainnya",
  "catatan": "<deskripsi singkat tanpa nominal>"
}

Aturan:
- "15k" atau "15rb" berarti 15000. "2jt" berarti 2000000. "2.5jt" berarti 2500000.
- Nama akun huruf kecil. "tunai" dan "uang" berarti "cash".
- Tarik tunai: akun_asal bank yang disebut, akun_tujuan "cash".
- Topup / isi saldo: akun_asal "cash", akun_tujuan dompet yang disebut.
- Jika tidak ada akun disebut, pakai "cash".
- Jika pesan bukan transaksi, balas {"tipe": "bukan_transaksi"}.

Contoh:
"bakso 15k" -> {"tipe": "pengeluaran", "nominal": 15000, "akun": "cash", "kategori": "makanan", "catatan": "bakso"}
"gaji 5jt ke bca" -> {"tipe": "pemasukan", "nominal": 5000000, "akun": "bca", "kategori": "gaji", "catatan": "gaji"}
"transfer bca ke dana 100k" -> {"tipe": "transfer", "nominal": 100000, "akun_asal": "bca", "akun_tujuan": "dana", "kategori": "transfer", "catatan": "transfer bca ke dana"}
"tarik tunai bri 1jt" -> {"tipe": "transfer", "nominal": 1000000, "akun_asal": "bri", "akun_tujuan": "cash", "kategori": "transfer", "catatan": "tarik tunai bri"}

Pesan: %q`, text)
}
